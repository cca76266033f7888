// Package syncstate computes and persists the SyncState document the
// editor client polls: queue counters, active conflicts, a per-
// specification summary, and EMA-smoothed performance averages.
package syncstate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/specforged/specforge/internal/atomicio"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/specstore"
)

// EMAAlpha is the exponential-moving-average smoothing factor applied
// to observed handler durations.
const EMAAlpha = 0.2

// WriteInterval is the upper bound between writes regardless of queue
// activity; the writer is also invoked once per tick.
const WriteInterval = 30 * time.Second

// SpecSummary is one entry in SyncState.Specifications.
type SpecSummary struct {
	SpecID       string    `json:"specId"`
	LastModified time.Time `json:"lastModified"`
	Version      int       `json:"version"`
	Status       string    `json:"status"`
}

// Performance carries the EMA-smoothed handler-duration average plus
// the most recent sample and a derived processing rate.
type Performance struct {
	AverageOperationTimeMs float64 `json:"averageOperationTimeMs"`
	LastProcessingDuration float64 `json:"lastProcessingDuration"`
	QueueProcessingRate    float64 `json:"queueProcessingRate"`
}

// State is the full document written to specforge-sync.json.
type State struct {
	Pending          int           `json:"pending"`
	InProgress       int           `json:"inProgress"`
	Failed           int           `json:"failed"`
	Completed        int           `json:"completed"`
	ActiveConflicts  int           `json:"activeConflicts"`
	Specifications   []SpecSummary `json:"specifications"`
	Performance      Performance   `json:"performance"`
	ServerOnline     bool          `json:"server_online"`
	LastHeartbeat    time.Time     `json:"last_heartbeat"`
	LastSync         time.Time     `json:"last_sync"`
}

// Tracker accumulates the EMA across ticks; it must persist across
// Compute calls (one instance per processor lifetime).
type Tracker struct {
	averageMs float64
	seeded    bool
}

// Observe folds a new handler-duration sample into the EMA.
func (t *Tracker) Observe(durationMs float64) {
	if !t.seeded {
		t.averageMs = durationMs
		t.seeded = true
		return
	}
	t.averageMs = EMAAlpha*durationMs + (1-EMAAlpha)*t.averageMs
}

// Compute derives a State from the current queue, active conflicts,
// and the specifications on disk under root.
func Compute(q *queue.Queue, activeConflicts int, specs []*specstore.Specification, root string, tracker *Tracker, lastDurationMs float64, rate float64) State {
	s := State{
		ServerOnline:    true,
		LastHeartbeat:   time.Now().UTC(),
		LastSync:        time.Now().UTC(),
		ActiveConflicts: activeConflicts,
	}

	for _, op := range q.Operations {
		switch op.Status {
		case queue.StatusPending:
			s.Pending++
		case queue.StatusInProgress:
			s.InProgress++
		case queue.StatusFailed:
			s.Failed++
		case queue.StatusCompleted:
			s.Completed++
		}
	}

	for _, spec := range specs {
		s.Specifications = append(s.Specifications, SpecSummary{
			SpecID:       spec.Slug,
			LastModified: newestMTime(filepath.Join(root, ".specifications", spec.Slug)),
			Version:      0,
			Status:       string(spec.Status),
		})
	}

	s.Performance = Performance{
		AverageOperationTimeMs: tracker.averageMs,
		LastProcessingDuration: lastDurationMs,
		QueueProcessingRate:    rate,
	}

	return s
}

func newestMTime(dir string) time.Time {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}
	}
	var newest time.Time
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest
}

// Write persists the SyncState document atomically.
func Write(path string, s State) error {
	return atomicio.Write(path, s)
}
