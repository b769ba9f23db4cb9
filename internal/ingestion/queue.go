package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const (
	StreamName = "ontograph:documents"
	GroupName  = "ontograph-workers"
	blockMS    = 5000
)

// DocumentMessage is the payload enqueued for asynchronous processing. The
// document body lives in object storage under ObjectKey.
type DocumentMessage struct {
	RunID                   uuid.UUID `json:"run_id"`
	ObjectKey               string    `json:"object_key"`
	Name                    string    `json:"name"`
	MimeType                string    `json:"mime_type"`
	MaxVisits               int       `json:"max_visits,omitempty"`
	MaxChunks               int       `json:"max_chunks,omitempty"`
	SkipOntologyDevelopment *bool     `json:"skip_ontology_development,omitempty"`
}

// Limits returns the processing limits the message asks for.
func (m DocumentMessage) Limits() Limits {
	return Limits{
		MaxVisits:               m.MaxVisits,
		MaxChunks:               m.MaxChunks,
		SkipOntologyDevelopment: m.SkipOntologyDevelopment,
	}
}

// Producer enqueues documents to the Valkey stream.
type Producer struct {
	client valkey.Client
}

func NewProducer(client valkey.Client) *Producer {
	return &Producer{client: client}
}

func (p *Producer) Enqueue(ctx context.Context, msg DocumentMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	resp := p.client.Do(ctx, p.client.B().Xadd().
		Key(StreamName).Id("*").
		FieldValue().FieldValue("data", string(data)).
		Build())
	if err := resp.Error(); err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	id, err := resp.ToString()
	if err != nil {
		return "", fmt.Errorf("parse xadd response: %w", err)
	}
	return id, nil
}

// Consumer reads documents from the Valkey stream.
type Consumer struct {
	client     valkey.Client
	consumerID string
	logger     *slog.Logger
}

func NewConsumer(client valkey.Client, consumerID string, logger *slog.Logger) *Consumer {
	return &Consumer{client: client, consumerID: consumerID, logger: logger}
}

// EnsureGroup creates the consumer group if it doesn't exist.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	resp := c.client.Do(ctx, c.client.B().XgroupCreate().
		Key(StreamName).Group(GroupName).Id("0").Mkstream().Build())
	if err := resp.Error(); err != nil {
		if !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("xgroup create: %w", err)
		}
	}
	return nil
}

// Consume blocks until a message is available, processes it via handler, and ACKs.
// On startup, it first drains any pending messages from a previous crash.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, DocumentMessage) error) error {
	c.drainPending(ctx, handler)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := c.poll(ctx, true, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Timeout is normal for BLOCK reads
			continue
		}
	}
}

// poll reads at most one new message and returns how many were handled.
func (c *Consumer) poll(ctx context.Context, block bool, handler func(context.Context, DocumentMessage) error) (int, error) {
	cmd := c.client.B().Xreadgroup().Group(GroupName, c.consumerID).Count(1)
	var resp valkey.ValkeyResult
	if block {
		resp = c.client.Do(ctx, cmd.Block(blockMS).Streams().Key(StreamName).Id(">").Build())
	} else {
		resp = c.client.Do(ctx, cmd.Streams().Key(StreamName).Id(">").Build())
	}
	if err := resp.Error(); err != nil {
		return 0, err
	}

	results, err := resp.AsXRead()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, messages := range results {
		for _, msg := range messages {
			c.processMessage(ctx, msg, handler)
			n++
		}
	}
	return n, nil
}

// drainPending reads messages previously delivered to this consumer but not ACKed.
func (c *Consumer) drainPending(ctx context.Context, handler func(context.Context, DocumentMessage) error) {
	resp := c.client.Do(ctx, c.client.B().Xreadgroup().
		Group(GroupName, c.consumerID).
		Count(10).
		Streams().Key(StreamName).Id("0").
		Build())

	if err := resp.Error(); err != nil {
		c.logger.Warn("drain pending failed", slog.String("error", err.Error()))
		return
	}

	results, err := resp.AsXRead()
	if err != nil {
		return
	}

	for _, messages := range results {
		for _, msg := range messages {
			c.logger.Info("recovering pending message", slog.String("id", msg.ID))
			c.processMessage(ctx, msg, handler)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg valkey.XRangeEntry, handler func(context.Context, DocumentMessage) error) {
	dataStr, ok := msg.FieldValues["data"]
	if !ok {
		c.logger.Warn("message missing data field", slog.String("id", msg.ID))
		c.ack(ctx, msg.ID)
		return
	}

	var docMsg DocumentMessage
	if err := json.Unmarshal([]byte(dataStr), &docMsg); err != nil {
		c.logger.Error("unmarshal message", slog.String("error", err.Error()), slog.String("id", msg.ID))
		c.ack(ctx, msg.ID)
		return
	}

	if err := handler(ctx, docMsg); err != nil {
		c.logger.Error("handle message", slog.String("error", err.Error()),
			slog.String("id", msg.ID),
			slog.String("run_id", docMsg.RunID.String()))
	} else {
		c.ack(ctx, msg.ID)
	}
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	resp := c.client.Do(ctx, c.client.B().Xack().
		Key(StreamName).Group(GroupName).Id(msgID).Build())
	if err := resp.Error(); err != nil {
		c.logger.Error("xack failed", slog.String("error", err.Error()), slog.String("id", msgID))
	}
}
