// Package testlog provides a recording slog.Handler so tests can
// assert on mapper and datastore log output deterministically, without
// timestamps.
package testlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Entry is one captured log record.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Handler records every log record it handles. Derived handlers from
// WithAttrs share the same recording, so a test holding the root
// handler sees everything.
type Handler struct {
	rec   *recorder
	attrs []slog.Attr
}

type recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewHandler() *Handler {
	return &Handler{rec: &recorder{}}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	entry := Entry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]string),
	}
	for _, attr := range h.attrs {
		entry.Attrs[attr.Key] = fmt.Sprint(attr.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = fmt.Sprint(a.Value.Any())
		return true
	})
	h.rec.mu.Lock()
	h.rec.entries = append(h.rec.entries, entry)
	h.rec.mu.Unlock()
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{rec: h.rec, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a snapshot of everything recorded so far.
func (h *Handler) Entries() []Entry {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return append([]Entry{}, h.rec.entries...)
}

// Contains reports whether any record at the given level contains
// substr in its message.
func (h *Handler) Contains(level slog.Level, substr string) bool {
	for _, entry := range h.Entries() {
		if entry.Level == level && strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}
