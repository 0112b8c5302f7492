//nolint:testpackage // Test needs access to unexported fields
package tui

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
)

func TestTape_ReadAfterClose(t *testing.T) {
	tape := NewTape()
	first := &progrock.StatusUpdate{}
	require.NoError(t, tape.WriteStatus(first))
	require.NoError(t, tape.Close())

	got, err := tape.Read()
	require.NoError(t, err)
	assert.Same(t, first, got)

	_, err = tape.Read()
	assert.ErrorIs(t, err, io.EOF)

	// Writes after close are dropped and closing twice is harmless.
	require.NoError(t, tape.WriteStatus(&progrock.StatusUpdate{}))
	require.NoError(t, tape.Close())
}

func TestTape_ReleaseUnblocksWriters(t *testing.T) {
	tape := NewTape()
	for range tapeBuffer {
		require.NoError(t, tape.WriteStatus(&progrock.StatusUpdate{}))
	}
	tape.release()
	tape.release()

	assert.NoError(t, tape.WriteStatus(&progrock.StatusUpdate{}))
}

func TestDisplay_Close(t *testing.T) {
	var out bytes.Buffer
	d := NewDisplay(&out)
	require.NoError(t, d.WriteStatus(&progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: "v1", Name: "configure"}},
	}))
	require.NoError(t, d.Close())
}
