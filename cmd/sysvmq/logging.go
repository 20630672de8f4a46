package main

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

const (
	terminalLogHandler = "terminal"
	uiLogHandler       = "ui"
)

// SlogManager is a [slog.Handler] fanning out records to a changeable set of
// named handlers, so that logs can be moved between the terminal and the
// monitor at runtime.
type SlogManager struct {
	sync.RWMutex
	handlers map[string]slog.Handler
	attrs    []slog.Attr
	groups   []string
}

func NewSlogManager() *SlogManager {
	return &SlogManager{
		handlers: make(map[string]slog.Handler),
	}
}

func (m *SlogManager) Enabled(ctx context.Context, level slog.Level) bool {
	m.RLock()
	defer m.RUnlock()

	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m *SlogManager) Handle(ctx context.Context, r slog.Record) error {
	m.RLock()
	defer m.RUnlock()

	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}

	return nil
}

func (m *SlogManager) WithAttrs(attrs []slog.Attr) slog.Handler {
	m.RLock()
	defer m.RUnlock()

	newLm := &SlogManager{
		handlers: make(map[string]slog.Handler, len(m.handlers)),
		attrs:    slices.Concat(m.attrs, attrs),
		groups:   slices.Clone(m.groups),
	}

	for name, h := range m.handlers {
		newLm.handlers[name] = h.WithAttrs(attrs)
	}

	return newLm
}

func (m *SlogManager) WithGroup(name string) slog.Handler {
	m.RLock()
	defer m.RUnlock()

	newLm := &SlogManager{
		handlers: make(map[string]slog.Handler, len(m.handlers)),
		attrs:    slices.Clone(m.attrs),
		groups:   append(slices.Clone(m.groups), name),
	}

	for handlerName, h := range m.handlers {
		newLm.handlers[handlerName] = h.WithGroup(name)
	}

	return newLm
}

// AddHandler registers a handler under name, replacing any previous one. The
// attributes and groups of the manager are applied to it.
func (m *SlogManager) AddHandler(name string, handler slog.Handler) {
	m.Lock()
	defer m.Unlock()

	h := handler
	if len(m.attrs) > 0 {
		h = h.WithAttrs(m.attrs)
	}

	for _, group := range m.groups {
		h = h.WithGroup(group)
	}

	m.handlers[name] = h
}

func (m *SlogManager) RemoveHandler(name string) {
	m.Lock()
	defer m.Unlock()

	delete(m.handlers, name)
}

// Len returns the number of registered handlers.
func (m *SlogManager) Len() int {
	m.RLock()
	defer m.RUnlock()

	return len(m.handlers)
}

func newTerminalHandler(level slog.Leveler) slog.Handler {
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
}

func setupLogging(level slog.Leveler) *SlogManager {
	logManager := NewSlogManager()
	logManager.AddHandler(terminalLogHandler, newTerminalHandler(level))

	slog.SetDefault(slog.New(logManager))

	return logManager
}
