// Package ui implements a command-line queue monitor using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/sysvmq/internal/mq"
)

// DefaultInterval is the default interval between two metadata polls.
const DefaultInterval = 500 * time.Millisecond

type infoProvider interface {
	Refresh() error
	Info() mq.Info
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	infoHandler infoProvider
	program     *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler], polling
// the queue metadata from infoHandler every interval. The infoHandler is
// only ever used from one goroutine at a time.
func NewHandler(ctx context.Context, cancel context.CancelFunc, infoHandler infoProvider, interval time.Duration) *Handler {
	handler := &Handler{
		infoHandler: infoHandler,
	}

	model := NewTeaModel(handler, cancel, interval)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]).
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}
