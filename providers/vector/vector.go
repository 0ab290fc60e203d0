// Package vector manages the connection to a Qdrant vector database.
//
// A [Connection] is created disconnected. [Connection.Connect] dials the
// server and verifies it with a health check; a failed check closes the
// client again, so a Connection is either fully usable or not connected at
// all. [With] scopes a connection to a callback and always disconnects.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/config"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// ErrNotConnected is returned by operations that need an open connection.
var ErrNotConnected = errors.New("vector database is not connected")

// Defaults of the Qdrant gRPC endpoint.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334
)

// Config holds the connection settings.
type Config = config.QdrantConfig

// Connection wraps a Qdrant client with an explicit connect/disconnect
// lifecycle. It is safe for concurrent use.
type Connection struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	client *qdrant.Client
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a disconnected Connection. Empty host and zero port fall back
// to [DefaultHost] and [DefaultPort].
func New(cfg Config, opts ...Option) *Connection {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	conn := &Connection{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(conn)
	}
	return conn
}

// Config returns the connection settings.
func (c *Connection) Config() Config {
	return c.cfg
}

// Connect opens the client and checks the server health. Calling Connect on
// an open connection is a no-op.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.logger.InfoContext(ctx, "vector database already connected")
		return nil
	}

	c.logger.InfoContext(ctx, "connecting to vector database", observability.AttrVectorHost, c.cfg.Host, observability.AttrVectorPort, c.cfg.Port)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.cfg.Host,
		Port:   c.cfg.Port,
		APIKey: c.cfg.APIKey,
		UseTLS: c.cfg.UseTLS,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to create vector database client", "error", err)
		return fmt.Errorf("create qdrant client: %w", err)
	}

	if _, err := client.HealthCheck(ctx); err != nil {
		c.logger.ErrorContext(ctx, "vector database health check failed", "error", err)
		c.logger.InfoContext(ctx, "check that Qdrant is running", observability.AttrVectorHost, c.cfg.Host, observability.AttrVectorPort, c.cfg.Port)
		if closeErr := client.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "failed to close vector database client", "error", closeErr)
		}
		return fmt.Errorf("connect to qdrant at %s:%d: %w", c.cfg.Host, c.cfg.Port, err)
	}

	c.client = client
	c.logger.InfoContext(ctx, "connected to vector database")
	return nil
}

// IsConnected reports whether Connect succeeded and Disconnect was not called.
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client != nil
}

// Client returns the underlying client, or nil when not connected.
func (c *Connection) Client() *qdrant.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Version returns the server version reported by the health check.
func (c *Connection) Version(ctx context.Context) (string, error) {
	client := c.Client()
	if client == nil {
		return "", ErrNotConnected
	}

	reply, err := client.HealthCheck(ctx)
	if err != nil {
		return "", fmt.Errorf("qdrant health check: %w", err)
	}
	c.logger.DebugContext(ctx, "vector database health check", observability.AttrVectorVersion, reply.GetVersion())
	return reply.GetVersion(), nil
}

// Disconnect closes the client. Calling it on a closed connection only logs.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.logger.Info("vector database client is not connected")
		return nil
	}

	c.logger.Info("disconnecting from vector database")
	err := c.client.Close()
	c.client = nil
	if err != nil {
		return fmt.Errorf("close qdrant client: %w", err)
	}
	c.logger.Info("disconnected from vector database")
	return nil
}

// With connects, runs fn with the client and disconnects, whatever fn
// returns.
func With(ctx context.Context, cfg Config, fn func(ctx context.Context, client *qdrant.Client) error, opts ...Option) (err error) {
	conn := New(cfg, opts...)
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, conn.Disconnect())
	}()

	return fn(ctx, conn.Client())
}
