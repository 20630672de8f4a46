package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/sysvmq/internal/mq"
	"github.com/dustin/go-humanize"
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	// infoStyle defines the style for a panel's text.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// errorStyle defines the style for a failed poll's text.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	// helpStyle defines the style for the help panel's text.
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

const maxLogLines = 100

// InfoMsg is a [tea.Msg] containing a polled [mq.Info] snapshot.
type InfoMsg struct {
	t    time.Time
	info mq.Info
	err  error
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler
	interval  time.Duration

	fullWidthWithBorders  int
	splitWidthWithBorders int

	info         mq.Info
	pollErr      error
	polledAt     time.Time
	peakMessages uint64
	peakBytes    uint64

	fillProgress progress.Model
	logsViewport viewport.Model
	logs         []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, cancel context.CancelFunc, interval time.Duration) TeaModel {
	if interval <= 0 {
		interval = DefaultInterval
	}

	fillProgress := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(80),
	)

	logsViewport := viewport.New(80, 20)

	return TeaModel{
		uiHandler:    uiHandler,
		interval:     interval,
		fillProgress: fillProgress,
		logsViewport: logsViewport,
		logs:         make([]string, 0, maxLogLines),
		cancel:       cancel,
		ready:        false,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		pollInfo(m.uiHandler.infoHandler, m.interval),
	)
}

// pollInfo produces a [tea.Cmd] for later scheduling in a [tea.Program].
// When executed, the metadata is refreshed and returned as an [InfoMsg].
func pollInfo(h infoProvider, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		err := h.Refresh()

		return InfoMsg{
			t:    t,
			info: h.Info(),
			err:  err,
		}
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2
		m.splitWidthWithBorders = (m.width / 2) - 2

		m.fillProgress.Width = m.splitWidthWithBorders

		// Upper panels take about 40% of the height.
		upperHeight := m.height * 2 / 5
		lowerHeight := m.height - upperHeight

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = lowerHeight - 3

		m.renderLogs()

		if !m.ready {
			m.ready = true
			m.uiHandler.Ready.Store(true)
		}

	case InfoMsg:
		m.polledAt = msg.t
		m.pollErr = msg.err

		if msg.err == nil {
			m.info = msg.info
			m.peakMessages = max(m.peakMessages, msg.info.Messages)
			m.peakBytes = max(m.peakBytes, msg.info.Bytes)

			cmds = append(cmds, m.fillProgress.SetPercent(msg.info.FillRatio()))
		}

		cmds = append(cmds, pollInfo(m.uiHandler.infoHandler, m.interval))

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}
		m.logs = append(m.logs, string(msg))

		m.renderLogs()

	case progress.FrameMsg:
		updated, cmd := m.fillProgress.Update(msg)
		if progressModel, ok := updated.(progress.Model); ok {
			m.fillProgress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *TeaModel) renderLogs() {
	if len(m.logs) == 0 {
		return
	}

	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the monitor..."
	}

	var s strings.Builder

	infoSection := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(m.splitWidthWithBorders).Render(m.formatQueueView()),
		borderStyle.Width(m.splitWidthWithBorders).Render(m.formatActivityView()),
	)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Process Information"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("q: quit monitor • ctrl+c: quit program")

	s.WriteString(lipgloss.JoinVertical(
		lipgloss.Left,
		infoSection,
		logsSection,
		helpSection,
	))

	return s.String()
}

func (m TeaModel) formatQueueView() string {
	details := fmt.Sprintf(
		"Fill: %.2f%%\n"+
			"Messages: %d (peak %d)\n"+
			"Bytes: %s of %s (peak %s)\n"+
			"Permission: %s (uid=%d, gid=%d)\n",
		m.info.FillRatio()*100, //nolint:mnd
		m.info.Messages, m.peakMessages,
		humanize.IBytes(m.info.Bytes), humanize.IBytes(m.info.MaxBytes), humanize.IBytes(m.peakBytes),
		m.info.Permission, m.info.UID, m.info.GID,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render(fmt.Sprintf("Queue %s (id %d)", m.info.Key, m.info.ID)),
		"", // Empty line for spacing.
		m.fillProgress.View(),
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	)
}

func (m TeaModel) formatActivityView() string {
	details := fmt.Sprintf(
		"Last send: %s (pid %d)\n"+
			"Last receive: %s (pid %d)\n"+
			"Last change: %s\n"+
			"Polled: %s\n",
		sinceOrNever(m.info.SentAt), m.info.LastSendPID,
		sinceOrNever(m.info.ReceivedAt), m.info.LastReceivePID,
		sinceOrNever(m.info.ChangedAt),
		m.polledAt.Format("15:04:05"),
	)

	content := []string{
		titleStyle.Width(m.splitWidthWithBorders).Render("Activity"),
		"", // Empty line for spacing.
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	}

	if m.pollErr != nil {
		content = append(content, errorStyle.Width(m.splitWidthWithBorders).Render("Error: "+m.pollErr.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, content...)
}

func sinceOrNever(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	return humanize.Time(t)
}
