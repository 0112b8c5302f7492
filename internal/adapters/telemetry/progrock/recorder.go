// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"io"
	"strconv"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements the ports.Telemetry interface using the vito/progrock library.
type Recorder struct {
	w    progrock.Writer
	rec  *progrock.Recorder
	echo io.Writer
	seq  atomic.Uint64
}

// New creates a new Recorder with a default tape, mirroring vertex output to echo.
func New(echo io.Writer) *Recorder {
	return NewRecorder(progrock.NewTape(), echo)
}

// NewRecorder creates a new Recorder with the given writer.
// A nil echo discards mirrored output.
func NewRecorder(w progrock.Writer, echo io.Writer) *Recorder {
	if echo == nil {
		echo = io.Discard
	}
	return &Recorder{
		w:    w,
		rec:  progrock.NewRecorder(w),
		echo: echo,
	}
}

// Record starts recording a new vertex.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	// Steps may repeat across a run, so ids carry a sequence number.
	d := digest.FromString(name + "#" + strconv.FormatUint(r.seq.Add(1), 10))
	v := r.rec.Vertex(d, name)
	vertex := &Vertex{vertex: v, name: name, echo: &lockedWriter{w: r.echo}}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
