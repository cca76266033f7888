// Package atomicio implements durable JSON document I/O: write via a
// sibling temp file plus rename, read with a size ceiling that routes
// oversized files to internal/streamjson, and corrupt-file recovery by
// renaming aside and returning a caller-supplied empty default.
package atomicio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/specforged/specforge/internal/specerrors"
)

// SizeCeiling is the threshold above which Read refuses to parse a
// file in memory and the caller should use internal/streamjson instead.
const SizeCeiling = 10 * 1024 * 1024 // 10 MiB

// Write serializes value as indented JSON to a temp file beside path
// then renames it over path. The rename is the only atomicity
// primitive; a failed rename is retried up to three times with short
// sleeps. There is no delete-then-rename fallback for platforms where
// rename-over-existing is not atomic.
func Write(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return specerrors.Wrap("atomicio.Write", specerrors.ErrFatal, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return specerrors.Wrap("atomicio.Write", specerrors.ErrTransient, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.Write", specerrors.ErrTransient, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.Write", specerrors.ErrTransient, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.Write", specerrors.ErrTransient, err)
	}

	if err := renameWithRetry(tmpName, path); err != nil {
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.Write", specerrors.ErrTransient, err)
	}
	return nil
}

// WriteText writes content as raw UTF-8 bytes via the same
// temp-file-then-rename path as Write, for the rendered markdown
// companions that are not JSON documents.
func WriteText(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return specerrors.Wrap("atomicio.WriteText", specerrors.ErrTransient, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.WriteText", specerrors.ErrTransient, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.WriteText", specerrors.ErrTransient, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.WriteText", specerrors.ErrTransient, err)
	}
	if err := renameWithRetry(tmpName, path); err != nil {
		os.Remove(tmpName)
		return specerrors.Wrap("atomicio.WriteText", specerrors.ErrTransient, err)
	}
	return nil
}

func renameWithRetry(src, dst string) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := os.Rename(src, dst); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return lastErr
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses path into out (a pointer). If the file is larger than
// SizeCeiling, it returns ErrTooLarge so the caller can switch to
// streamjson. If the file exists but fails to parse, it is renamed
// aside as "<stem>.corrupted_<epoch>.<ext>" and Read returns
// ErrCorrupted; the caller is expected to fall back to an empty
// default in that case, per the recovery contract.
func Read(path string, out interface{}) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return specerrors.Wrap("atomicio.Read", specerrors.ErrNotFound, err)
		}
		return specerrors.Wrap("atomicio.Read", specerrors.ErrTransient, err)
	}
	if info.Size() > SizeCeiling {
		return ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return specerrors.Wrap("atomicio.Read", specerrors.ErrTransient, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return recover_(path, fmt.Errorf("file is not valid UTF-8"))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return recover_(path, err)
	}
	return nil
}

// ErrTooLarge signals the caller to use internal/streamjson instead.
var ErrTooLarge = specerrors.New("atomicio.Read", specerrors.ErrTransient, "file exceeds size ceiling, use streaming loader")

// ErrCorrupted is returned (wrapped with the original cause) when a
// file fails to parse and has been backed up.
var ErrCorrupted = specerrors.New("atomicio.Read", specerrors.ErrFatal, "file corrupted and backed up")

func recover_(path string, cause error) error {
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	backup := fmt.Sprintf("%s.corrupted_%d%s", stem, time.Now().Unix(), ext)
	_ = os.Rename(path, backup)
	return specerrors.Wrap("atomicio.Read", specerrors.ErrFatal, fmt.Errorf("%w: backed up to %s: %v", ErrCorrupted, backup, cause))
}

// Exists reports whether path exists on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
