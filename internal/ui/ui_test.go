package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/desertwitch/sysvmq/internal/mq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue is an infoProvider whose message count grows with every refresh.
type fakeQueue struct {
	refreshes atomic.Uint64
}

func (f *fakeQueue) Refresh() error {
	f.refreshes.Add(1)

	return nil
}

func (f *fakeQueue) Info() mq.Info {
	n := f.refreshes.Load()

	return mq.Info{
		Key:        ipckey.Key(0x1234),
		ID:         7,
		Permission: mq.DefaultPermission,
		Messages:   n,
		Bytes:      n * 16,
		MaxBytes:   16384,
		SentAt:     time.Now(),
	}
}

func updateModel(t *testing.T, m TeaModel, msg tea.Msg) TeaModel {
	t.Helper()

	updated, _ := m.Update(msg)
	model, ok := updated.(TeaModel)
	require.True(t, ok)

	return model
}

// TestTeaModel_Update tests the state and rendering of the model across
// size, metadata and log messages.
func TestTeaModel_Update(t *testing.T) {
	t.Parallel()

	handler := &Handler{infoHandler: &fakeQueue{}}
	m := NewTeaModel(handler, func() {}, time.Second)

	assert.Equal(t, "Loading the monitor...", m.View())

	m = updateModel(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	assert.True(t, handler.Ready.Load())

	m = updateModel(t, m, InfoMsg{
		t: time.Now(),
		info: mq.Info{
			Key:        ipckey.Key(0x1234),
			ID:         7,
			Permission: mq.DefaultPermission,
			Messages:   3,
			Bytes:      48,
			MaxBytes:   16384,
		},
	})

	view := m.View()
	assert.Contains(t, view, "Queue 0x00001234 (id 7)")
	assert.Contains(t, view, "Messages: 3 (peak 3)")
	assert.Contains(t, view, "48 B of 16 KiB")
	assert.Contains(t, view, "rw-r--r--")
	assert.Contains(t, view, "Last send: never")

	m = updateModel(t, m, InfoMsg{
		t: time.Now(),
		info: mq.Info{
			Key:      ipckey.Key(0x1234),
			ID:       7,
			Messages: 1,
			Bytes:    16,
			MaxBytes: 16384,
			SentAt:   time.Now().Add(-time.Hour),
		},
	})

	view = m.View()
	assert.Contains(t, view, "Messages: 1 (peak 3)")
	assert.Contains(t, view, "1 hour ago")

	m = updateModel(t, m, InfoMsg{
		t:   time.Now(),
		err: errors.New("queue was removed"),
	})

	view = m.View()
	assert.Contains(t, view, "Error: queue was removed")
	assert.Contains(t, view, "Messages: 1 (peak 3)", "a failed poll must keep the last snapshot")

	m = updateModel(t, m, LogMsg("a log line\n"))
	assert.Contains(t, m.View(), "a log line")
}

// TestTeaModel_Update_LogLimit tests that only the most recent log lines are
// retained.
func TestTeaModel_Update_LogLimit(t *testing.T) {
	t.Parallel()

	m := NewTeaModel(&Handler{infoHandler: &fakeQueue{}}, func() {}, time.Second)

	for i := range maxLogLines + 10 {
		m = updateModel(t, m, LogMsg(strings.Repeat("x", i%5)+"\n"))
	}

	assert.Len(t, m.logs, maxLogLines)
}

// TestTeaModel_Update_Keys tests the quit keys of the model.
func TestTeaModel_Update_Keys(t *testing.T) {
	t.Parallel()

	var cancelled atomic.Bool
	m := NewTeaModel(&Handler{infoHandler: &fakeQueue{}}, func() { cancelled.Store(true) }, time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, cancelled.Load())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, cancelled.Load())
}

// TestPollInfo tests that a poll refreshes the metadata before reading it.
func TestPollInfo(t *testing.T) {
	t.Parallel()

	src := &fakeQueue{}

	msg := pollInfo(src, time.Millisecond)()

	infoMsg, ok := msg.(InfoMsg)
	require.True(t, ok)
	require.NoError(t, infoMsg.err)
	assert.Equal(t, uint64(1), infoMsg.info.Messages)
	assert.False(t, infoMsg.t.IsZero())
}

// TestTeaUI is an integration test for the command-line user interface.
func TestTeaUI(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	handler := &Handler{infoHandler: &fakeQueue{}}
	model := NewTeaModel(handler, cancel, 10*time.Millisecond)
	program := tea.NewProgram(model, tea.WithInput(&in), tea.WithOutput(&buf), tea.WithAltScreen(), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	go func() {
		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				program.Send(LogMsg("log1"))
				time.Sleep(time.Millisecond)

				_, _ = handler.LogWriter.Write([]byte("log2"))
				time.Sleep(time.Millisecond)

				for range 150 {
					_, _ = handler.LogWriter.Write([]byte("fast logs"))
				}

				program.Send(tea.WindowSizeMsg{Width: 200, Height: 250})

				time.Sleep(time.Second)
				program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	go func() {
		time.Sleep(10 * time.Millisecond)
		program.Send(tea.WindowSizeMsg{Width: 200, Height: 200})
	}()

	require.NoError(t, handler.Launch())

	out := buf.String()
	require.NotEmpty(t, out, "UI generated no output at all")

	assert.Contains(t, out, "log1", "UI did not show the log message sent via program.Send")
	assert.Contains(t, out, "log2", "UI did not show the log message sent via LogWriter")
	assert.Contains(t, out, "Queue 0x00001234 (id 7)", "UI did not show the polled metadata")
}

// TestTeaUI_Ctrl_C is an integration test for the command-line user interface.
// A Ctrl+C keypress is simulated, which should trigger upstream Context
// cancellation for signalling application teardown.
func TestTeaUI_Ctrl_C(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var in bytes.Buffer

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	handler := &Handler{infoHandler: &fakeQueue{}}
	model := NewTeaModel(handler, cancel, 10*time.Millisecond)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithInput(&in), tea.WithOutput(&buf), tea.WithContext(ctx))

	handler.program = program
	handler.LogWriter = NewTeaLogWriter(handler.program)

	go func() {
		program.Send(tea.WindowSizeMsg{Width: 120, Height: 40})

		for {
			time.Sleep(time.Millisecond)
			if handler.Ready.Load() {
				program.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

				return
			}
			if handler.Failed.Load() {
				return
			}
		}
	}()

	err := handler.Launch()
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
