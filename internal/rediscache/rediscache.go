// Package rediscache mirrors the processor's SyncState document to
// Redis when SPECFORGE_REDIS_URL is set, so a second process (or a
// dashboard with no filesystem access to the project) can read
// specforge:sync without touching specforge-sync.json. This is a
// best-effort cache-aside write: failures are logged and never change
// tick behavior. The go-redis usage pattern (building a *redis.Client
// from a URL and treating write failures as logged-not-fatal) follows
// the same shape as the corpus's service-discovery client, repurposed
// here from service discovery to a single cache-aside key.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/syncstate"
)

const (
	syncKey = "specforge:sync"
	syncTTL = 120 * time.Second
	writeTimeout = 2 * time.Second
)

// Mirror writes SyncState snapshots to a Redis key.
type Mirror struct {
	client *redis.Client
	logger logging.Logger
}

// New parses url and constructs a Mirror. A malformed URL is returned
// as an error; New does not verify connectivity, so a down Redis
// surfaces as a logged failure on the first Write rather than blocking
// startup.
func New(url string, logger logging.Logger) (*Mirror, error) {
	if logger == nil {
		logger = logging.NoOp()
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Mirror{client: redis.NewClient(opt), logger: logger.WithComponent("rediscache")}, nil
}

// Write mirrors state to Redis in its own goroutine so a slow or
// unreachable Redis never adds latency to the reactor's tick.
func (m *Mirror) Write(state syncstate.State) {
	go func() {
		data, err := json.Marshal(state)
		if err != nil {
			m.logger.Warn("failed to marshal sync state for redis mirror", map[string]interface{}{"error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := m.client.Set(ctx, syncKey, data, syncTTL).Err(); err != nil {
			m.logger.Warn("redis sync mirror write failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// Close releases the underlying connection pool.
func (m *Mirror) Close() error {
	return m.client.Close()
}
