package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileTransport appends events as NDJSON lines to a local file. Useful for
// bench runs and as the sink of last resort when no broker is reachable from
// the deployment site.
type FileTransport struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileTransport opens (or creates) the sink file in append mode.
func NewFileTransport(path string) (*FileTransport, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file transport: open %s: %w", path, err)
	}
	return &FileTransport{file: f}, nil
}

// Send writes one event as a single JSON line.
func (t *FileTransport) Send(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("file transport: marshal event %d: %w", ev.SequenceID, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("file transport: write: %w", err)
	}
	return nil
}

// Close closes the sink file.
func (t *FileTransport) Close() error {
	return t.file.Close()
}
