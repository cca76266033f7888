package queue

import (
	"encoding/json"
	"os"

	"github.com/specforged/specforge/internal/atomicio"
	"github.com/specforged/specforge/internal/streamjson"
)

// StreamingThreshold is the file size above which Load switches to the
// chunked streamjson reader instead of atomicio's whole-file parse.
const StreamingThreshold = 1 * 1024 * 1024 // 1 MiB

// Load reads the operation queue document at path. Files over
// StreamingThreshold are read via internal/streamjson, and elements
// that do not unmarshal as an Operation are skipped and counted in the
// second return value (together with any streamjson skipped). A
// missing file, or a smaller file that
// atomicio.Read fails on (a corrupt one is backed up first), yields an
// empty queue and no error so the processor tick can continue. A stat
// failure or a streaming parse failure is returned as an error
// alongside an empty queue, and no backup is made.
func Load(path string) (*Queue, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Queue{Operations: []*Operation{}, Version: 0}, 0, nil
		}
		return &Queue{Operations: []*Operation{}, Version: 0}, 0, err
	}

	if info.Size() > StreamingThreshold {
		raw, err := streamjson.Load(path)
		if err != nil {
			return &Queue{Operations: []*Operation{}, Version: 0}, 0, err
		}
		q := &Queue{Version: raw.Version, LastProcessed: raw.LastProcessed}
		for _, elem := range raw.Operations {
			var op Operation
			if err := json.Unmarshal(elem, &op); err != nil {
				raw.Skipped++
				continue
			}
			q.Operations = append(q.Operations, &op)
		}
		return q, raw.Skipped, nil
	}

	var q Queue
	if err := atomicio.Read(path, &q); err != nil {
		if err == atomicio.ErrTooLarge {
			// Size grew between Stat and Read; fall back to streaming.
			return Load(path)
		}
		// atomicio.Read already backed up a corrupt file; start fresh.
		return &Queue{Operations: []*Operation{}, Version: 0}, 0, nil
	}
	if q.Operations == nil {
		q.Operations = []*Operation{}
	}
	return &q, 0, nil
}

// Save writes the queue document atomically.
func Save(path string, q *Queue) error {
	return atomicio.Write(path, q)
}

// LoadResults reads the rolling result log, returning an empty log if
// the file does not yet exist.
func LoadResults(path string) (*ResultLog, error) {
	var log ResultLog
	if !atomicio.Exists(path) {
		return &ResultLog{Results: []*Result{}}, nil
	}
	if err := atomicio.Read(path, &log); err != nil {
		return &ResultLog{Results: []*Result{}}, nil
	}
	if log.Results == nil {
		log.Results = []*Result{}
	}
	return &log, nil
}

// SaveResults writes the rolling result log atomically.
func SaveResults(path string, log *ResultLog) error {
	return atomicio.Write(path, log)
}
