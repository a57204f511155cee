package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated entries to topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	// TimeInterval is the flush period. Default 30s.
	TimeInterval time.Duration
	// CountThreshold forces a flush once this many distinct entries are
	// pending. Default 100.
	CountThreshold int
	Topic          string
	// Publisher may be nil, in which case batches are dropped.
	Publisher Publisher
}

// AggregatedLogEntry is one distinct error line and how often it repeated
// between flushes.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates log lines by level, message, fields and caller,
// and publishes them in batches.
type LogCollector struct {
	cfg CollectionConfig

	mu      sync.Mutex
	pending map[string]*AggregatedLogEntry
	closed  bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewLogCollector(cfg *CollectionConfig) *LogCollector {
	c := &LogCollector{
		cfg:     *cfg,
		pending: make(map[string]*AggregatedLogEntry),
		stop:    make(chan struct{}),
	}
	if c.cfg.TimeInterval <= 0 {
		c.cfg.TimeInterval = 30 * time.Second
	}
	if c.cfg.CountThreshold <= 0 {
		c.cfg.CountThreshold = 100
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// identity is stable for equal inputs: encoding/json sorts map keys.
func identity(level, msg string, fields map[string]interface{}, caller string) string {
	b, err := json.Marshal(fields)
	if err != nil {
		b = []byte(fmt.Sprint(fields))
	}
	return level + "\x00" + caller + "\x00" + msg + "\x00" + string(b)
}

func (c *LogCollector) AddLog(level, msg string, fields map[string]interface{}, caller string) {
	id := identity(level, msg, fields, caller)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if e, ok := c.pending[id]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.pending[id] = &AggregatedLogEntry{
			Level: level, Message: msg, Fields: fields, Caller: caller,
			Count: 1, FirstSeen: now, LastSeen: now,
		}
	}
	if len(c.pending) >= c.cfg.CountThreshold {
		c.flushLocked()
	}
}

func (c *LogCollector) loop() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.TimeInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
		case <-c.stop:
			c.mu.Lock()
			c.flushLocked()
			c.mu.Unlock()
			return
		}
		c.mu.Lock()
		c.flushLocked()
		c.mu.Unlock()
	}
}

// flushLocked hands pending entries to the publisher in the background.
func (c *LogCollector) flushLocked() {
	if len(c.pending) == 0 {
		return
	}
	batch := make([]AggregatedLogEntry, 0, len(c.pending))
	for _, e := range c.pending {
		batch = append(batch, *e)
	}
	c.pending = make(map[string]*AggregatedLogEntry)
	if c.cfg.Publisher == nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		// the logger cannot log its own publish failures
		if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
			fmt.Fprintf(os.Stderr, "logger: publish %d aggregated entries: %v\n", len(batch), err)
		}
	}()
}

// Pending returns the number of distinct entries waiting for the next flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close flushes what is pending and waits for in-flight publishes. Lines
// added afterwards are dropped.
func (c *LogCollector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	close(c.stop)
	c.wg.Wait()
}
