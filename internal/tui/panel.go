// Package tui renders the preview panel: a waiting surface while the dev
// server comes up, the component's docs address and props once it answers,
// and a terminal error surface when it never does.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/storypane-dev/storypane/internal/browser"
	"github.com/storypane-dev/storypane/internal/story"
	"github.com/storypane-dev/storypane/internal/supervisor"
	"github.com/storypane-dev/storypane/internal/viewer"
)

const maxLogLines = 6

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	waitingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	readyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	propStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	borderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// probeTickMsg drives the session's probe sequence.
type probeTickMsg struct{}

// fileChangedMsg reports a debounced edit of the watched file.
type fileChangedMsg struct{}

// noticeMsg carries a supervisor notice (crash, inactivity auto-stop).
type noticeMsg string

// PanelModel is the bubbletea model for one preview panel.
type PanelModel struct {
	session *viewer.Session
	sup     *supervisor.Supervisor
	notices <-chan string

	spinner  spinner.Model
	width    int
	height   int
	log      []string
	quitting bool
	openErr  error
}

// NewPanel creates the panel model. notices may be nil.
func NewPanel(session *viewer.Session, sup *supervisor.Supervisor, notices <-chan string) PanelModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = waitingStyle

	return PanelModel{
		session: session,
		sup:     sup,
		notices: notices,
		spinner: sp,
		width:   80,
		height:  24,
	}
}

// Init starts the spinner, the probe ticker, and the notice listener.
func (m PanelModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, probeTick(), m.awaitNotice())
}

func probeTick() tea.Cmd {
	return tea.Tick(viewer.ProbeInterval, func(time.Time) tea.Msg {
		return probeTickMsg{}
	})
}

func (m PanelModel) awaitNotice() tea.Cmd {
	if m.notices == nil {
		return nil
	}

	return func() tea.Msg {
		msg, ok := <-m.notices
		if !ok {
			return nil
		}

		return noticeMsg(msg)
	}
}

// Update handles messages.
func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case probeTickMsg:
		state := m.session.Tick(context.Background())
		if state == viewer.StateAwaitingServer {
			return m, probeTick()
		}

		return m, nil

	case fileChangedMsg:
		m.session.HandleFileChange()
		m.pushLog(fmt.Sprintf("Saved %s", m.session.Target().Path))

		return m, nil

	case noticeMsg:
		m.pushLog(string(msg))

		return m, m.awaitNotice()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m PanelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.sup.ResetInactivity()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "o":
		m.openErr = m.openInBrowser()
		if m.openErr == nil {
			m.pushLog("Opened in browser")
		}

		return m, nil

	case "r":
		// Retry restarts the probe sequence for the same target.
		m.session.Retarget(m.session.Target())
		m.pushLog("Retrying")

		return m, probeTick()

	case "s":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := m.sup.Stop(ctx); err != nil {
			m.pushLog(err.Error())
		} else {
			m.pushLog("Dev server stopped")
		}

		return m, nil
	}

	return m, nil
}

func (m PanelModel) openInBrowser() error {
	path, err := m.session.WriteBootstrap()
	if err != nil {
		return err
	}

	if m.session.State() == viewer.StateDisplaying {
		return browser.Open(m.session.URL())
	}

	// Not answering yet: the bootstrap document carries its own waiting
	// surface and polls the docs page itself.
	return browser.Open("file://" + path)
}

func (m *PanelModel) pushLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

// View renders the panel.
func (m PanelModel) View() string {
	if m.quitting {
		return ""
	}

	target := m.session.Target()

	var b strings.Builder

	b.WriteString(titleStyle.Render(target.Title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(target.Path))
	b.WriteString("\n\n")

	switch m.session.State() {
	case viewer.StateAwaitingServer:
		b.WriteString(m.spinner.View())
		b.WriteString(waitingStyle.Render(fmt.Sprintf(
			" Waiting for dev server (attempt %d/%d)",
			m.session.Attempts(), viewer.DefaultMaxAttempts,
		)))

	case viewer.StateDisplaying:
		b.WriteString(readyStyle.Render("● Displaying"))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(m.session.URL()))
		b.WriteString(m.renderProps(target))

	case viewer.StateFailed:
		b.WriteString(failedStyle.Render("✗ Dev server did not respond"))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Press r to retry or s to stop the server"))
	}

	if m.openErr != nil {
		b.WriteString("\n")
		b.WriteString(failedStyle.Render(m.openErr.Error()))
	}

	if len(m.log) > 0 {
		b.WriteString("\n\n")
		for _, line := range m.log {
			b.WriteString(mutedStyle.Render(truncate(line, m.width-4)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("o open in browser · r retry · s stop server · q quit"))

	return borderStyle.Width(max(m.width-2, 20)).Render(b.String())
}

func (m PanelModel) renderProps(target *story.Target) string {
	if len(target.Props) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Props"))

	for _, prop := range target.Props {
		name := prop.Name
		if prop.Optional {
			name += "?"
		}

		line := fmt.Sprintf("%-16s %s", name, prop.Type)

		b.WriteString("\n  ")
		b.WriteString(propStyle.Render(truncate(line, m.width-6)))
	}

	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}

	return runewidth.Truncate(s, width, "…")
}
