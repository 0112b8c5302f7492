package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vito/progrock"
)

const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
	statusCached    = "cached"
)

// VertexState is the displayed state of one pipeline step.
type VertexState struct {
	ID     string
	Name   string
	Status string
	// LastLine is the most recent complete output line of the step.
	LastLine string
}

type styles struct {
	running   lipgloss.Style
	completed lipgloss.Style
	failed    lipgloss.Style
	cached    lipgloss.Style
	output    lipgloss.Style
}

// MsgTapeUpdate wraps the raw update from progrock.
type MsgTapeUpdate struct {
	Update *progrock.StatusUpdate
}

// MsgTapeEnded is sent when the tape stream has ended.
type MsgTapeEnded struct{}

// WaitForTape returns a Bubble Tea command that reads the next update from
// the tape. Any read error ends the stream.
func WaitForTape(tape TapeSource) tea.Cmd {
	return func() tea.Msg {
		update, err := tape.Read()
		if err != nil {
			return MsgTapeEnded{}
		}
		return MsgTapeUpdate{Update: update}
	}
}

// Model is the Bubble Tea model listing the steps of a kiln run.
type Model struct {
	tape     TapeSource
	vertices []VertexState
	index    map[string]int
	partial  map[string][]byte
	height   int
	spinner  spinner.Model
	styles   styles
}

// NewModel creates a new model reading from tape.
func NewModel(tape TapeSource) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))

	return &Model{
		tape:    tape,
		index:   make(map[string]int),
		partial: make(map[string][]byte),
		spinner: s,
		styles: styles{
			running:   lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")),
			completed: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),  // Green
			failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("160")), // Red
			cached:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Faint(true),
			output:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		},
	}
}

// Init starts reading from the tape.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForTape(m.tape),
		m.spinner.Tick,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgTapeUpdate:
		m.apply(msg.Update)
		return m, WaitForTape(m.tape)
	case MsgTapeEnded:
		return m, tea.Quit
	}
	return m, nil
}

// Vertices returns the steps seen so far in start order.
func (m *Model) Vertices() []VertexState {
	return append([]VertexState(nil), m.vertices...)
}

func (m *Model) apply(update *progrock.StatusUpdate) {
	if update == nil {
		return
	}
	for _, v := range update.Vertexes {
		m.updateOrAddVertex(v)
	}
	for _, l := range update.Logs {
		m.appendLog(l.Vertex, l.Data)
	}
}

func (m *Model) updateOrAddVertex(v *progrock.Vertex) {
	i, ok := m.index[v.Id]
	if !ok {
		m.vertices = append(m.vertices, VertexState{ID: v.Id, Name: v.Name, Status: statusRunning})
		i = len(m.vertices) - 1
		m.index[v.Id] = i
	}

	switch {
	case v.Cached:
		m.vertices[i].Status = statusCached
	case v.Completed != nil && v.Error != nil:
		m.vertices[i].Status = statusFailed
	case v.Completed != nil:
		m.vertices[i].Status = statusCompleted
	}
}

func (m *Model) appendLog(id string, data []byte) {
	i, ok := m.index[id]
	if !ok {
		return
	}
	buf := append(m.partial[id], data...)
	last := bytes.LastIndexByte(buf, '\n')
	if last < 0 {
		m.partial[id] = buf
		return
	}
	lines := strings.Split(strings.TrimRight(string(buf[:last]), "\r\n"), "\n")
	for j := len(lines) - 1; j >= 0; j-- {
		if line := strings.TrimSpace(lines[j]); line != "" {
			m.vertices[i].LastLine = line
			break
		}
	}
	m.partial[id] = append([]byte(nil), buf[last+1:]...)
}

// View renders one line per step, followed by the latest output of the
// running step.
func (m *Model) View() string {
	var s strings.Builder

	start := 0
	if len(m.vertices) > m.height && m.height > 0 {
		start = len(m.vertices) - m.height
	}

	for i := start; i < len(m.vertices); i++ {
		v := m.vertices[i]
		var icon string
		var style lipgloss.Style
		switch v.Status {
		case statusRunning:
			icon = m.spinner.View()
			style = m.styles.running
		case statusCompleted:
			icon = "✓"
			style = m.styles.completed
		case statusFailed:
			icon = "✗"
			style = m.styles.failed
		default:
			icon = "⚡"
			style = m.styles.cached
		}

		fmt.Fprintf(&s, "%s %s\n", style.Render(icon), v.Name)
		if v.Status == statusRunning && v.LastLine != "" {
			fmt.Fprintf(&s, "  %s\n", m.styles.output.Render(v.LastLine))
		}
	}

	return s.String()
}
