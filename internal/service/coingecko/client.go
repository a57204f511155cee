// Package coingecko implements repository.MarketData against the CoinGecko v3 API.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ClmmLens/internal/domain/models"
	drepo "ClmmLens/internal/domain/repository"
	"ClmmLens/internal/service/ratelimit"
	xhttp "ClmmLens/pkg/http"
	applogger "ClmmLens/pkg/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/tidwall/gjson"
)

const (
	apiKeyHeader = "x-cg-demo-api-key"
	vsCurrency   = "usd"
	limiterKey   = "coingecko"
)

var (
	ErrRateLimited = errors.New("coingecko: local rate limit exhausted")
	ErrMalformed   = errors.New("coingecko: malformed payload")
	ErrNoPrice     = errors.New("coingecko: price missing")
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	log     *applogger.Logger
}

var _ drepo.MarketData = (*Client)(nil)

// New builds a client. limiter may be nil to disable local throttling.
func New(cfg Config, limiter *ratelimit.Limiter, log *applogger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if log == nil {
		log = applogger.Nop()
	}
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		log:     log,
	}
}

// SpotPrice returns the USD price of asset.
func (c *Client) SpotPrice(ctx context.Context, asset models.Asset) (float64, error) {
	body, err := c.get(ctx, "/simple/price", url.Values{
		"ids":           {asset.ProviderID},
		"vs_currencies": {vsCurrency},
	})
	if err != nil {
		return 0, fmt.Errorf("spot %s: %w", asset.Symbol, err)
	}
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("spot %s: %w", asset.Symbol, ErrMalformed)
	}
	v := gjson.GetBytes(body, escapePath(asset.ProviderID)+"."+vsCurrency)
	if !v.Exists() || v.Type != gjson.Number {
		return 0, fmt.Errorf("spot %s: %w", asset.Symbol, ErrNoPrice)
	}
	return v.Float(), nil
}

// History returns the USD price samples of asset over the trailing window.
// Samples are returned as delivered; filtering is the caller's concern.
func (c *Client) History(ctx context.Context, asset models.Asset, days int, interval models.Interval) ([]models.PricePoint, error) {
	q := url.Values{
		"vs_currency": {vsCurrency},
		"days":        {strconv.Itoa(days)},
	}
	if interval == models.IntervalDaily {
		q.Set("interval", string(models.IntervalDaily))
	}
	body, err := c.get(ctx, "/coins/"+url.PathEscape(asset.ProviderID)+"/market_chart", q)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", asset.Symbol, err)
	}
	points, err := parsePrices(body)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", asset.Symbol, err)
	}
	return points, nil
}

func parsePrices(body []byte) ([]models.PricePoint, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformed
	}
	prices := gjson.GetBytes(body, "prices")
	if !prices.IsArray() {
		return nil, ErrMalformed
	}
	rows := prices.Array()
	out := make([]models.PricePoint, 0, len(rows))
	for _, row := range rows {
		pair := row.Array()
		if len(pair) < 2 || pair[1].Type != gjson.Number {
			continue
		}
		out = append(out, models.PricePoint{
			Time:  time.UnixMilli(pair[0].Int()).UTC(),
			Price: pair[1].Float(),
		})
	}
	return out, nil
}

// get performs a GET with retries on 429, 5xx and transport failures. A 429
// carrying Retry-After waits as long as the provider asks.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil && !c.limiter.Allow(limiterKey) {
		return nil, ErrRateLimited
	}

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.RetryDelay
	eb.MaxInterval = 8 * c.cfg.RetryDelay

	op := func() ([]byte, error) {
		body, err := c.http.GetJSON(ctx, c.cfg.BaseURL+path, query, header)
		if err == nil {
			return body, nil
		}
		var se *xhttp.StatusError
		switch {
		case ctx.Err() != nil:
			return nil, backoff.Permanent(ctx.Err())
		case errors.As(err, &se) && !se.Temporary():
			return nil, backoff.Permanent(err)
		case se != nil && se.RetryAfter > 0:
			return nil, fmt.Errorf("%w (%w)", err, backoff.RetryAfter(se.RetryAfter))
		}
		return nil, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.log.Warn("coingecko.retry",
				applogger.String("path", path),
				applogger.Duration("wait_ms", d),
				applogger.Error(err),
			)
		}),
	)
}

// escapePath escapes gjson path metacharacters in a provider id.
func escapePath(id string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(id)
}
