package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Log         LogConfig        `yaml:"log"`
	Server      ServerConfig     `yaml:"server"`
	API         APIConfig        `yaml:"api"`
	Market      MarketConfig     `yaml:"market"`
	Cache       CacheConfig      `yaml:"cache"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Stream      StreamConfig     `yaml:"stream"`
	Simulation  SimulationConfig `yaml:"simulation"`
}

type LogConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json"`
	Output     string `yaml:"output" default:"stdout"`
	TimeFormat string `yaml:"time_format"`
	Collector  struct {
		Enabled   bool          `yaml:"enabled"`
		Interval  time.Duration `yaml:"interval" default:"30s"`
		Threshold int           `yaml:"threshold" default:"100"`
	} `yaml:"collector"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
	CORS            bool          `yaml:"cors"`
	Metrics         struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

// BucketConfig sizes a token bucket.
type BucketConfig struct {
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
}

// Enabled reports whether the bucket limits anything. Zero capacity disables it.
func (b BucketConfig) Enabled() bool { return b.Capacity > 0 }

func (b BucketConfig) validate(name string) error {
	if b.Capacity < 0 {
		return fmt.Errorf("%s.capacity must be >= 0", name)
	}
	if b.Capacity > 0 && b.RefillPerSec <= 0 {
		return fmt.Errorf("%s.refill_per_sec must be > 0", name)
	}
	return nil
}

type APIConfig struct {
	RateLimit BucketConfig `yaml:"rate_limit" default:"{\"Capacity\":60,\"RefillPerSec\":2}"`
}

// AssetConfig maps a symbol to its provider and stream identifiers.
type AssetConfig struct {
	ID           string `yaml:"id"`
	StreamSymbol string `yaml:"stream_symbol"`
}

type MarketConfig struct {
	BaseURL        string                 `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
	APIKey         string                 `yaml:"api_key"`
	Timeout        time.Duration          `yaml:"timeout" default:"10s"`
	MaxRetries     int                    `yaml:"max_retries" default:"3"`
	RetryDelay     time.Duration          `yaml:"retry_delay" default:"500ms"`
	RateLimit      BucketConfig           `yaml:"rate_limit" default:"{\"Capacity\":10,\"RefillPerSec\":0.5}"`
	ReferenceAsset string                 `yaml:"reference_asset" default:"USDC"`
	HistoryDays    int                    `yaml:"history_days" default:"30"`
	Interval       string                 `yaml:"interval" default:"daily"`
	FallbackLength int                    `yaml:"fallback_length" default:"30"`
	MinPoints      int                    `yaml:"min_points" default:"2"`
	Assets         map[string]AssetConfig `yaml:"assets"`
}

type CacheConfig struct {
	Backend    string        `yaml:"backend" default:"memory"`
	HistoryTTL time.Duration `yaml:"history_ttl" default:"1h"`
	SpotTTL    time.Duration `yaml:"spot_ttl" default:"60s"`
	Memory     struct {
		MaxSize         int           `yaml:"max_size" default:"10000"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1m"`
		L1TTL           time.Duration `yaml:"l1_ttl" default:"30s"`
	} `yaml:"memory"`
	Redis struct {
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		PoolSize int           `yaml:"pool_size" default:"10"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
	} `yaml:"redis"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"clmmlens"`
	Table            string        `yaml:"table" default:"daily_closes"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"clmmlens.reports"`
	LogTopic     string   `yaml:"log_topic" default:"clmmlens.logs"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"100ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

type StreamConfig struct {
	Enabled        bool          `yaml:"enabled"`
	APIKey         string        `yaml:"api_key"`
	WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	StaleAfter     time.Duration `yaml:"stale_after" default:"2m"`
	MinInterval    time.Duration `yaml:"min_interval" default:"1s"`
}

type SimulationConfig struct {
	MaxPaths   int `yaml:"max_paths" default:"10000"`
	MaxHorizon int `yaml:"max_horizon" default:"3650"`
}

// Load reads a YAML file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Market.Assets) == 0 {
		c.Market.Assets = DefaultAssets()
	}
	assets := make(map[string]AssetConfig, len(c.Market.Assets))
	for sym, a := range c.Market.Assets {
		assets[strings.ToUpper(sym)] = a
	}
	c.Market.Assets = assets
	c.Market.ReferenceAsset = strings.ToUpper(c.Market.ReferenceAsset)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("COINGECKO_API_KEY"); v != "" {
		c.Market.APIKey = v
	}
	if v := getenv("FINNHUB_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	switch c.Market.Interval {
	case "daily", "hourly":
	default:
		return fmt.Errorf("market.interval must be 'daily' or 'hourly', got '%s'", c.Market.Interval)
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url is required")
	}
	if c.Market.MinPoints < 2 {
		return fmt.Errorf("market.min_points must be >= 2")
	}
	if c.Market.FallbackLength < c.Market.MinPoints {
		return fmt.Errorf("market.fallback_length must be >= market.min_points")
	}
	if err := c.API.RateLimit.validate("api.rate_limit"); err != nil {
		return err
	}
	if err := c.Market.RateLimit.validate("market.rate_limit"); err != nil {
		return err
	}
	if _, ok := c.Market.Assets[strings.ToUpper(c.Market.ReferenceAsset)]; !ok {
		return fmt.Errorf("market.reference_asset %q is not in market.assets", c.Market.ReferenceAsset)
	}
	for sym, a := range c.Market.Assets {
		if a.ID == "" {
			return fmt.Errorf("market.assets.%s.id is required", sym)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Stream.Enabled && c.Stream.APIKey == "" {
		return fmt.Errorf("stream.api_key is required when stream is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

// DefaultAssets is the registry used when the file defines none.
func DefaultAssets() map[string]AssetConfig {
	return map[string]AssetConfig{
		"USDC":  {ID: "usd-coin"},
		"USDT":  {ID: "tether"},
		"ETH":   {ID: "ethereum", StreamSymbol: "BINANCE:ETHUSDT"},
		"BTC":   {ID: "bitcoin", StreamSymbol: "BINANCE:BTCUSDT"},
		"CBBTC": {ID: "coinbase-wrapped-btc"},
		"SOL":   {ID: "solana", StreamSymbol: "BINANCE:SOLUSDT"},
	}
}
