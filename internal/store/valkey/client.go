// Package valkey connects to the Valkey instance backing the document queue.
package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/ontograph/internal/config"
)

const pingTimeout = 5 * time.Second

func clientOption(cfg config.ValkeyConfig) valkey.ClientOption {
	return valkey.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	}
}

// NewClient connects and fails fast when the server does not answer PING.
func NewClient(ctx context.Context, cfg config.ValkeyConfig) (valkey.Client, error) {
	client, err := valkey.NewClient(clientOption(cfg))
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}
	if err := Ping(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Ping checks the connection within pingTimeout. It doubles as a readiness
// check.
func Ping(ctx context.Context, client valkey.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping valkey: %w", err)
	}
	return nil
}
