// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// NopLogger returns a logger that discards all output
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogCapture collects JSON log lines for assertions
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Entries decodes every captured line. Lines that are not JSON are skipped.
func (c *LogCapture) Entries() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(c.buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		if json.Unmarshal(line, &entry) == nil {
			out = append(out, entry)
		}
	}
	return out
}

// Last returns the most recent entry, or nil if nothing was logged
func (c *LogCapture) Last() map[string]any {
	entries := c.Entries()
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1]
}

// CaptureLogger returns a debug-level logger writing into a LogCapture
func CaptureLogger() (*slog.Logger, *LogCapture) {
	capture := &LogCapture{}
	return slog.New(slog.NewJSONHandler(capture, &slog.HandlerOptions{Level: slog.LevelDebug})), capture
}
