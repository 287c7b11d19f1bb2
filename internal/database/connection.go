package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/opin/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// ErrNotConnected is returned when no connection is open.
var ErrNotConnected = errors.New("database not connected")

// Connection is a SurrealDB connection that reconnects when an operation
// fails for network reasons and, once monitored, when a health check fails.
type Connection struct {
	cfg      config.Provider
	backoff  Backoff
	interval time.Duration

	mu      sync.RWMutex
	db      *surrealdb.DB
	healthy bool

	done chan struct{}
	once sync.Once
}

// Option configures a Connection.
type Option func(*Connection)

// WithBackoff replaces DefaultBackoff.
func WithBackoff(b Backoff) Option {
	return func(c *Connection) { c.backoff = b }
}

// WithHealthInterval sets how often StartMonitoring pings. The default is 30s.
func WithHealthInterval(d time.Duration) Option {
	return func(c *Connection) { c.interval = d }
}

func NewConnection(cfg config.Provider, opts ...Option) *Connection {
	c := &Connection{
		cfg:      cfg,
		backoff:  DefaultBackoff(),
		interval: 30 * time.Second,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the connection unless it is already open.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}
	return c.redial(ctx)
}

// WithConnection runs fn against the open connection. When fn fails with a
// connection error the connection is reopened and fn retried with backoff;
// any other error is returned as is.
func (c *Connection) WithConnection(ctx context.Context, fn func(*surrealdb.DB) error) error {
	db := c.current()
	if db == nil {
		return ErrNotConnected
	}

	err := fn(db)
	if err == nil || !isConnectionError(err) {
		return err
	}

	slog.WarnContext(ctx, "Database operation failed, reconnecting", "error", err, "db_url", redactDBURL(c.cfg.GetDBUrl()))
	return c.backoff.Retry(ctx, func() error {
		if rerr := c.reconnect(ctx); rerr != nil {
			return fmt.Errorf("reconnect: %w (after: %v)", rerr, err)
		}
		return fn(c.current())
	})
}

// Ping checks the connection and records the result for IsHealthy.
func (c *Connection) Ping(ctx context.Context) error {
	db := c.current()
	if db == nil {
		c.setHealthy(false)
		return ErrNotConnected
	}
	if _, err := db.Version(ctx); err != nil {
		c.setHealthy(false)
		return fmt.Errorf("ping %s: %w", redactDBURL(c.cfg.GetDBUrl()), err)
	}
	c.setHealthy(true)
	return nil
}

// StartMonitoring pings in the background until Close, reconnecting when a
// ping fails.
func (c *Connection) StartMonitoring() {
	go c.monitor()
}

// Close stops monitoring and closes the connection. It may be called more
// than once.
func (c *Connection) Close(ctx context.Context) error {
	c.once.Do(func() { close(c.done) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close(ctx)
	c.db = nil
	c.healthy = false
	return err
}

// IsHealthy reports the result of the last connect or ping.
func (c *Connection) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

func (c *Connection) current() *surrealdb.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// redial replaces the connection. c.mu must be held.
func (c *Connection) redial(ctx context.Context) error {
	if c.db != nil {
		c.db.Close(ctx)
		c.db = nil
	}

	db, err := dial(ctx, c.cfg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to connect to database", "db_url", redactDBURL(c.cfg.GetDBUrl()), "error", err)
		c.healthy = false
		return err
	}
	c.db = db
	c.healthy = true
	return nil
}

func (c *Connection) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redial(ctx)
}

func (c *Connection) monitor() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "Database health check failed, reconnecting", "error", err)
				if rerr := c.backoff.Retry(ctx, func() error { return c.reconnect(ctx) }); rerr != nil {
					slog.ErrorContext(ctx, "Database still unreachable", "error", rerr)
				}
			}
			cancel()
		}
	}
}

func (c *Connection) setHealthy(v bool) {
	c.mu.Lock()
	c.healthy = v
	c.mu.Unlock()
}

// isConnectionError reports whether err looks like a lost connection rather
// than a failed statement.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "broken pipe", "unexpected eof", "connection reset"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// redactDBURL hides the password in dbURL for logs.
func redactDBURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}
