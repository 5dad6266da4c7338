package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/worker-runtime/worker"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	printStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	modeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type entryKind int

const (
	entrySent entryKind = iota
	entryReply
	entryForwarded
	entryPrinted
	entryError
)

type entry struct {
	text string
	kind entryKind
}

// printWriter routes guest $print output into the TUI event loop.
type printWriter struct {
	ch chan string
}

func (pw *printWriter) Write(p []byte) (int, error) {
	pw.ch <- string(p)
	return len(p), nil
}

type interactiveModel struct {
	w          *worker.Worker
	c          *worker.Context
	err        error
	scriptPath string
	resource   string
	prints     chan string
	forwards   chan string
	input      textinput.Model
	transcript []entry
	syncMode   bool
	loaded     bool
}

type loadedMsg struct {
	err error
}

type printMsg string

type forwardMsg string

type sentMsg struct {
	err    error
	result string
	sync   bool
}

func newInteractiveModel(scriptPath, resource string) *interactiveModel {
	m := &interactiveModel{
		scriptPath: scriptPath,
		resource:   resource,
		prints:     make(chan string, 64),
		forwards:   make(chan string, 64),
	}

	m.w = worker.New(nil, worker.WithDiagnosticWriter(&printWriter{ch: m.prints}))

	recv := func(_ context.Context, msg string, _ any) {
		m.forwards <- msg
	}
	recvSync := func(_ context.Context, msg string, _ any) string {
		m.forwards <- msg
		return msg
	}
	m.c, m.err = m.w.CreateContext(recv, recvSync, nil)

	ti := textinput.New()
	ti.Placeholder = "message"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	m.input = ti

	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	if m.err != nil {
		return nil
	}
	return tea.Batch(m.loadScript, m.waitPrint, m.waitForward, textinput.Blink)
}

func (m *interactiveModel) loadScript() tea.Msg {
	source, err := os.ReadFile(m.scriptPath)
	if err != nil {
		return loadedMsg{err: err}
	}
	if err := m.w.Load(context.Background(), m.c, m.resource, string(source)); err != nil {
		return loadedMsg{err: fmt.Errorf("%s", m.w.LastException())}
	}
	return loadedMsg{}
}

func (m *interactiveModel) waitPrint() tea.Msg {
	return printMsg(<-m.prints)
}

func (m *interactiveModel) waitForward() tea.Msg {
	return forwardMsg(<-m.forwards)
}

func (m *interactiveModel) deliver(msg string, syncMode bool) tea.Cmd {
	return func() tea.Msg {
		if syncMode {
			return sentMsg{sync: true, result: m.w.SendSync(context.Background(), m.c, msg)}
		}
		if err := m.w.Send(context.Background(), m.c, msg); err != nil {
			return sentMsg{err: fmt.Errorf("%s", m.w.LastException())}
		}
		return sentMsg{}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.w.Close()
			return m, tea.Quit

		case "ctrl+s":
			m.syncMode = !m.syncMode
			return m, nil

		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || !m.loaded {
				return m, nil
			}
			m.input.Reset()
			mode := "Send"
			if m.syncMode {
				mode = "SendSync"
			}
			m.transcript = append(m.transcript, entry{
				kind: entrySent,
				text: fmt.Sprintf("%s %q", mode, text),
			})
			return m, m.deliver(text, m.syncMode)
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loaded = true

	case printMsg:
		m.transcript = append(m.transcript, entry{
			kind: entryPrinted,
			text: strings.TrimRight(string(msg), "\n"),
		})
		return m, m.waitPrint

	case forwardMsg:
		m.transcript = append(m.transcript, entry{
			kind: entryForwarded,
			text: string(msg),
		})
		return m, m.waitForward

	case sentMsg:
		switch {
		case msg.err != nil:
			m.transcript = append(m.transcript, entry{kind: entryError, text: msg.err.Error()})
		case msg.sync:
			m.transcript = append(m.transcript, entry{kind: entryReply, text: msg.result})
		default:
			m.transcript = append(m.transcript, entry{kind: entryReply, text: "(delivered)"})
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Worker Bridge"))
	b.WriteString(" ")
	b.WriteString(m.scriptPath)
	if m.c != nil {
		b.WriteString(fmt.Sprintf("  (context %d)", m.c.ID()))
	}
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString("Loading script...\n")
		return b.String()
	}

	for _, e := range m.transcript {
		switch e.kind {
		case entrySent:
			b.WriteString(sentStyle.Render("host  -> guest  " + e.text))
		case entryReply:
			b.WriteString(replyStyle.Render("guest -> host   " + e.text))
		case entryForwarded:
			b.WriteString(replyStyle.Render("guest $send     " + e.text))
		case entryPrinted:
			b.WriteString(printStyle.Render("guest $print    " + e.text))
		case entryError:
			b.WriteString(errorStyle.Render("error           " + e.text))
		}
		b.WriteString("\n")
	}
	if len(m.transcript) > 0 {
		b.WriteString("\n")
	}

	mode := "async (Send)"
	if m.syncMode {
		mode = "sync (SendSync)"
	}
	b.WriteString(modeStyle.Render("mode: " + mode))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter send • ctrl+s toggle sync • ctrl+c quit"))

	return b.String()
}

func runInteractive(scriptPath, resource string) error {
	p := tea.NewProgram(newInteractiveModel(scriptPath, resource), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
