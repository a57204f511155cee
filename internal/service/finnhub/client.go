// Package finnhub streams trade prints from the Finnhub WebSocket API.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"ClmmLens/internal/domain/models"
	drepo "ClmmLens/internal/domain/repository"
	applogger "ClmmLens/pkg/logger"

	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("finnhub: not connected")

const (
	tickBuffer   = 256
	writeTimeout = 5 * time.Second
)

// Client is a SpotStream over one Finnhub socket. Only symbols present in
// the mapping are forwarded, renamed to their asset symbol.
type Client struct {
	endpoint  string
	token     string
	assets    map[string]string
	backoff   time.Duration
	keepalive time.Duration
	dialer    *websocket.Dialer
	log       *applogger.Logger

	// wmu serialises writes; gorilla allows one concurrent writer.
	wmu  sync.Mutex
	mu   sync.RWMutex
	conn *websocket.Conn
}

var _ drepo.SpotStream = (*Client)(nil)

// New builds a stream client. assets maps feed symbols, such as
// "BINANCE:ETHUSDT", to asset symbols.
func New(token, endpoint string, assets map[string]string, backoff, keepalive time.Duration, log *applogger.Logger) *Client {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &Client{
		endpoint:  endpoint,
		token:     token,
		assets:    assets,
		backoff:   backoff,
		keepalive: keepalive,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:       log,
	}
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("finnhub endpoint: %w", err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) Connect(ctx context.Context) error {
	target, err := c.dialURL()
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("finnhub dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.log.Info("finnhub.connected", applogger.Int("symbols", len(c.assets)))
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Client) write(conn *websocket.Conn, v interface{}) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

// Subscribe asks for trades on every mapped feed symbol.
func (c *Client) Subscribe(ctx context.Context) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	for feed := range c.assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := struct {
			Type   string `json:"type"`
			Symbol string `json:"symbol"`
		}{"subscribe", feed}
		if err := c.write(conn, req); err != nil {
			return fmt.Errorf("finnhub subscribe %s: %w", feed, err)
		}
	}
	return nil
}

type frame struct {
	Type   string `json:"type"`
	Trades []struct {
		Symbol string  `json:"s"`
		Price  float64 `json:"p"`
		// milliseconds since epoch
		At int64 `json:"t"`
	} `json:"data"`
}

// parseFrame keeps trades for mapped symbols. Anything that is not a trade
// frame yields nil.
func parseFrame(raw []byte, assets map[string]string) []models.SpotTick {
	var f frame
	if json.Unmarshal(raw, &f) != nil || f.Type != "trade" {
		return nil
	}
	var ticks []models.SpotTick
	for _, tr := range f.Trades {
		if sym, ok := assets[tr.Symbol]; ok {
			ticks = append(ticks, models.SpotTick{Symbol: sym, Price: tr.Price, Time: time.UnixMilli(tr.At).UTC()})
		}
	}
	return ticks
}

// Read pumps ticks until ctx ends or the socket fails. A failure is sent on
// the error channel before both channels close. When the consumer lags,
// ticks are dropped rather than stalling the socket.
func (c *Client) Read(ctx context.Context) (<-chan models.SpotTick, <-chan error) {
	ticks := make(chan models.SpotTick, tickBuffer)
	errs := make(chan error, 1)

	conn := c.current()
	if conn == nil {
		errs <- ErrNotConnected
		close(ticks)
		close(errs)
		return ticks, errs
	}

	// A missed pong lets the read deadline expire, which ends the pump.
	grace := c.keepalive * 2
	_ = conn.SetReadDeadline(time.Now().Add(grace))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(grace))
	})

	pumpCtx, stop := context.WithCancel(ctx)
	go c.keepAlive(pumpCtx, conn)
	go func() {
		<-pumpCtx.Done()
		_ = conn.SetReadDeadline(time.Now())
	}()

	go func() {
		defer close(errs)
		defer close(ticks)
		defer stop()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("finnhub read: %w", err)
				}
				return
			}
			for _, tick := range parseFrame(raw, c.assets) {
				select {
				case ticks <- tick:
				default:
				}
			}
		}
	}()
	return ticks, errs
}

func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(c.keepalive)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.wmu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.wmu.Unlock()
			if err != nil {
				c.log.Warn("finnhub.ping_failed", applogger.Error(err))
			}
		}
	}
}

// Reconnect drops the socket, waits out the backoff and subscribes again.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// IsConnected reports whether a socket is currently open.
func (c *Client) IsConnected() bool {
	return c.current() != nil
}
