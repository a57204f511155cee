// Package clickhouse opens the warehouse pool used by the history store.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

var ErrNoHost = errors.New("clickhouse: host is required")

// Config describes one ClickHouse endpoint.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// HTTP selects the HTTP interface instead of the native protocol.
	HTTP bool

	DialTimeout time.Duration
	ReadTimeout time.Duration
	// MaxExecution is sent as max_execution_time; whole seconds only.
	MaxExecution time.Duration

	MaxOpenConns int
	MaxIdleConns int
}

func (c Config) options() *ch.Options {
	opts := &ch.Options{
		Addr: []string{net.JoinHostPort(c.Host, strconv.Itoa(c.Port))},
		Auth: ch.Auth{
			Database: c.Database,
			Username: c.User,
			Password: c.Password,
		},
		Protocol:        ch.Native,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: 5 * time.Minute,
	}
	if c.HTTP {
		opts.Protocol = ch.HTTP
	}
	if secs := int(c.MaxExecution / time.Second); secs > 0 {
		opts.Settings = ch.Settings{"max_execution_time": secs}
	}
	return opts
}

// Client owns the pool. Callers use DB for queries.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool and pings the server, so a bad address fails at
// startup instead of on the first query.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, ErrNoHost
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = cfg.MaxOpenConns / 2
	}

	db := ch.OpenDB(cfg.options())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Client{db: db}, nil
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// Exec runs each statement in order and stops at the first failure.
func (c *Client) Exec(ctx context.Context, stmts ...string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
