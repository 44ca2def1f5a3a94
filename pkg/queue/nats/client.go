package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds NATS client configuration
type Config struct {
	URL           string
	StreamName    string
	RetryAttempts int
	RetryDelay    time.Duration
	AckWait       time.Duration // time a worker may spend on one job
	MaxDeliver    int           // delivery attempts of a failing job
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		StreamName:    "hcpart",
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		AckWait:       5 * time.Minute,
		MaxDeliver:    3,
	}
}

// Client wraps NATS JetStream functionality
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config Config
}

// NewClient creates a new NATS client with JetStream support
func NewClient(cfg Config) (*Client, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.RetryAttempts),
		nats.ReconnectWait(cfg.RetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{
		nc:     nc,
		js:     js,
		config: cfg,
	}, nil
}

// CreateStream creates a JetStream stream for message persistence
func (c *Client) CreateStream(ctx context.Context, subjects []string) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      c.config.StreamName,
		Subjects:  subjects,
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    24 * time.Hour, // Retain unclaimed jobs and results for 24 hours
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EnsureStream creates the stream holding the job and result subjects
func (c *Client) EnsureStream(ctx context.Context) error {
	return c.CreateStream(ctx, []string{SubjectJobs, SubjectResultsAll})
}

// Publish publishes a message to a subject. The message ID lets JetStream
// drop duplicates of a retried publish.
func (c *Client) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}
	_, err := c.js.Publish(ctx, subject, data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// MessageHandler is called when a message is received
type MessageHandler func(msg jetstream.Msg) error

// Subscribe creates a durable consumer and subscribes to messages. A handler
// error Naks the message so that JetStream redelivers it, up to
// MaxDeliver times.
func (c *Client) Subscribe(ctx context.Context, subject string, consumerName string, handler MessageHandler) (jetstream.ConsumeContext, error) {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.config.StreamName, jetstream.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.config.AckWait,
		MaxDeliver:    c.config.MaxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return consume(consumer, handler)
}

// SubscribeEphemeral consumes subject without a durable name; the consumer
// disappears once the coordinator stops
func (c *Client) SubscribeEphemeral(ctx context.Context, subject string, handler MessageHandler) (jetstream.ConsumeContext, error) {
	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.config.StreamName, jetstream.ConsumerConfig{
		FilterSubject:     subject,
		AckPolicy:         jetstream.AckExplicitPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return consume(consumer, handler)
}

func consume(consumer jetstream.Consumer, handler MessageHandler) (jetstream.ConsumeContext, error) {
	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(msg); err != nil {
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return consumeCtx, nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.nc != nil {
		c.nc.Close()
	}
}

// IsConnected returns true if connected to NATS
func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}
