//nolint:testpackage // Test needs access to unexported fields
package tui

import (
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type stubTape struct {
	updates []*progrock.StatusUpdate
}

func (s *stubTape) Read() (*progrock.StatusUpdate, error) {
	if len(s.updates) == 0 {
		return nil, io.EOF
	}
	u := s.updates[0]
	s.updates = s.updates[1:]
	return u, nil
}

func failed(msg string) *string { return &msg }

func TestModel_TapeUpdates(t *testing.T) {
	m := NewModel(&stubTape{})

	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{
			{Id: "v1", Name: "configure", Started: timestamppb.Now()},
			{Id: "v2", Name: "build", Started: timestamppb.Now()},
		},
	}})
	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{
			{Id: "v1", Name: "configure", Completed: timestamppb.Now()},
			{Id: "v2", Name: "build", Completed: timestamppb.Now(), Error: failed("exit status 2")},
			{Id: "v3", Name: "resolve", Cached: true},
		},
	}})

	vertices := m.Vertices()
	require.Len(t, vertices, 3)
	assert.Equal(t, statusCompleted, vertices[0].Status)
	assert.Equal(t, statusFailed, vertices[1].Status)
	assert.Equal(t, statusCached, vertices[2].Status)
}

func TestModel_LastLine(t *testing.T) {
	m := NewModel(&stubTape{})
	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: "v1", Name: "build"}},
	}})

	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Logs: []*progrock.VertexLog{
			{Vertex: "v1", Data: []byte("[ 25%] Building C object\n[ 50%] Linking")},
			{Vertex: "unknown", Data: []byte("ignored\n")},
		},
	}})
	assert.Equal(t, "[ 25%] Building C object", m.Vertices()[0].LastLine)

	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Logs: []*progrock.VertexLog{{Vertex: "v1", Data: []byte(" C static library libSOIL.a\n\n")}},
	}})
	assert.Equal(t, "[ 50%] Linking C static library libSOIL.a", m.Vertices()[0].LastLine)

	view := m.View()
	assert.Contains(t, view, "build\n")
	assert.Contains(t, view, "libSOIL.a")
}

func TestModel_ViewHidesOutputOfFinishedSteps(t *testing.T) {
	m := NewModel(&stubTape{})
	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: "v1", Name: "package"}},
		Logs:     []*progrock.VertexLog{{Vertex: "v1", Data: []byte("copied include/SOIL.h\n")}},
	}})
	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: "v1", Name: "package", Completed: timestamppb.Now()}},
	}})

	view := m.View()
	assert.Contains(t, view, "✓")
	assert.NotContains(t, view, "copied include/SOIL.h")
}

func TestModel_ViewOverflow(t *testing.T) {
	m := NewModel(&stubTape{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 1})
	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{
			{Id: "v1", Name: "configure", Completed: timestamppb.Now()},
			{Id: "v2", Name: "build", Completed: timestamppb.Now()},
		},
	}})

	view := m.View()
	assert.NotContains(t, view, "configure")
	assert.Contains(t, view, "build")
}

func TestModel_TapeEndedQuits(t *testing.T) {
	m := NewModel(&stubTape{})
	_, cmd := m.Update(MsgTapeEnded{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWaitForTape(t *testing.T) {
	update := &progrock.StatusUpdate{}
	tape := &stubTape{updates: []*progrock.StatusUpdate{update}}

	msg := WaitForTape(tape)()
	require.IsType(t, MsgTapeUpdate{}, msg)
	assert.Same(t, update, msg.(MsgTapeUpdate).Update)

	assert.Equal(t, MsgTapeEnded{}, WaitForTape(tape)())
	assert.Equal(t, MsgTapeEnded{}, WaitForTape(errTape{})())
}

type errTape struct{}

func (errTape) Read() (*progrock.StatusUpdate, error) { return nil, errors.New("closed pipe") }
