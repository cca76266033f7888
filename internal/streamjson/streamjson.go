// Package streamjson parses an operation queue document that is too
// large to load fully into memory (see internal/atomicio.SizeCeiling).
// It decodes the document incrementally using json.Decoder's streaming
// token API, so the file is read in chunks rather than in one read.
// Every operation element is kept as a json.RawMessage, so memory use
// still grows with the number and size of the operations.
package streamjson

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/specforged/specforge/internal/specerrors"
)

// RawQueue is the decoded queue document with each operation kept as a
// raw JSON element, so callers can unmarshal the elements into their
// own type and skip the ones that do not fit.
type RawQueue struct {
	Operations    []json.RawMessage
	Version       int
	LastProcessed *time.Time
	Skipped       int // elements that failed to unmarshal as an object
}

// bufSize bounds the chunk buffer used by the underlying decoder; it
// does not bound peak memory by itself (json.Decoder buffers whole
// tokens), but keeps I/O chunked as documented.
const bufSize = 32 * 1024

// Load streams path, which must contain an object of shape
// {"operations":[...], "version":int, "last_processed":string|null}.
// Operations are decoded one at a time from the array; any element
// that fails to decode as a JSON value is skipped and counted rather
// than aborting the load.
func Load(path string) (*RawQueue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, specerrors.Wrap("streamjson.Load", specerrors.ErrTransient, err)
	}
	defer f.Close()

	return decode(bufio.NewReaderSize(f, bufSize))
}

func decode(r io.Reader) (*RawQueue, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	out := &RawQueue{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, specerrors.Wrap("streamjson.Load", specerrors.ErrFatal, err)
		}
		key, _ := tok.(string)

		switch key {
		case "operations":
			if err := decodeOperations(dec, out); err != nil {
				return nil, err
			}
		case "version":
			if err := dec.Decode(&out.Version); err != nil {
				return nil, specerrors.Wrap("streamjson.Load", specerrors.ErrFatal, err)
			}
		case "last_processed":
			var raw *string
			if err := dec.Decode(&raw); err != nil {
				return nil, specerrors.Wrap("streamjson.Load", specerrors.ErrFatal, err)
			}
			if raw != nil {
				if t, err := time.Parse(time.RFC3339, *raw); err == nil {
					out.LastProcessed = &t
				}
			}
		default:
			var discard json.RawMessage
			if err := dec.Decode(&discard); err != nil {
				return nil, specerrors.Wrap("streamjson.Load", specerrors.ErrFatal, err)
			}
		}
	}

	return out, nil
}

func decodeOperations(dec *json.Decoder, out *RawQueue) error {
	if err := expectDelim(dec, '['); err != nil {
		return err
	}
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			out.Skipped++
			continue
		}
		out.Operations = append(out.Operations, raw)
	}
	// consume closing ']'
	if _, err := dec.Token(); err != nil {
		return specerrors.Wrap("streamjson.Load", specerrors.ErrFatal, err)
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return specerrors.Wrap("streamjson.Load", specerrors.ErrFatal, err)
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return specerrors.New("streamjson.Load", specerrors.ErrFatal, "malformed queue document")
	}
	return nil
}
