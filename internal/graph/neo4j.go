package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/maraichr/ontograph/internal/config"
)

// Client stores RDF named graphs in Neo4j.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewClient(cfg config.Neo4jConfig) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Client{driver: driver, database: cfg.Database}, nil
}

// constraints back the MERGE keys of the triple queries.
var constraints = []struct{ name, cypher string }{
	{"resource key", CreateConstraintResourceKey},
	{"named graph iri", CreateConstraintNamedGraphIRI},
}

// EnsureIndexes creates the uniqueness constraints. It is idempotent.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	session := c.Session(ctx)
	defer session.Close(ctx)
	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, con := range constraints {
			if _, err := tx.Run(ctx, con.cypher, nil); err != nil {
				return nil, fmt.Errorf("create %s constraint: %w", con.name, err)
			}
		}
		return nil, nil
	})
	return err
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Verify checks connectivity. It backs the readiness probe.
func (c *Client) Verify(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Session returns a write session on the configured database.
func (c *Client) Session(ctx context.Context) neo4j.SessionWithContext {
	return c.session(ctx, neo4j.AccessModeWrite)
}

func (c *Client) readSession(ctx context.Context) neo4j.SessionWithContext {
	return c.session(ctx, neo4j.AccessModeRead)
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: c.database})
}
