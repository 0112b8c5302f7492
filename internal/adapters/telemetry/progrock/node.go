package progrock

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"github.com/mattn/go-isatty"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/tui"
)

const (
	// NodeID is the unique identifier for the telemetry adapter node.
	NodeID graft.ID = "adapter.telemetry"
)

func init() {
	graft.Register(graft.Node[ports.Telemetry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Telemetry, error) {
			return newForStderr(), nil
		},
	})
}

// newForStderr draws steps interactively when stderr is a terminal and
// KILN_PROGRESS is not "plain". Otherwise step output is echoed as text.
func newForStderr() *Recorder {
	if os.Getenv("KILN_PROGRESS") != "plain" && isatty.IsTerminal(os.Stderr.Fd()) {
		return NewRecorder(tui.NewDisplay(os.Stderr), nil)
	}
	return New(os.Stderr)
}
