package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
)

var _ progrock.Writer = (*Display)(nil)

// Display draws recorded steps on a terminal while they run.
type Display struct {
	tape    *Tape
	program *tea.Program
	exited  chan struct{}
}

// NewDisplay starts drawing on out. Close must be called to restore the
// terminal.
func NewDisplay(out io.Writer) *Display {
	tape := NewTape()
	d := &Display{
		tape: tape,
		program: tea.NewProgram(
			NewModel(tape),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		exited: make(chan struct{}),
	}

	go func() {
		defer close(d.exited)
		defer tape.release()
		_, _ = d.program.Run()
	}()
	return d
}

// WriteStatus forwards update to the display.
func (d *Display) WriteStatus(update *progrock.StatusUpdate) error {
	return d.tape.WriteStatus(update)
}

// Close ends the tape and waits until the final frame is drawn.
func (d *Display) Close() error {
	if err := d.tape.Close(); err != nil {
		return err
	}
	<-d.exited
	return nil
}
