package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader serves a fixed sequence of reads, simulating arbitrary
// network fragmentation.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func drain(t *testing.T, d *Decoder) []Frame {
	t.Helper()
	var frames []Frame
	for {
		frame, err := d.Next()
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, frame)
	}
}

func TestDecoderSingleFrame(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"x\":1}\n\n"))
	frame, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(frame.Data))
	assert.False(t, frame.Done)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderDoneSentinel(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: [DONE]\n\n"))
	frame, err := d.Next()
	require.NoError(t, err)
	assert.True(t, frame.Done)
	assert.Empty(t, frame.Data)
}

func TestDecoderFrameSplitAcrossEveryBoundary(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\ndata: [DONE]\n\n"
	for cut := 1; cut < len(stream); cut++ {
		d := NewDecoder(&chunkReader{chunks: []string{stream[:cut], stream[cut:]}})
		frames := drain(t, d)
		require.Len(t, frames, 2, "split at %d", cut)
		assert.Equal(t, `{"choices":[{"delta":{"content":"Hello"}}]}`, string(frames[0].Data), "split at %d", cut)
		assert.True(t, frames[1].Done, "split at %d", cut)
	}
}

func TestDecoderFrameEndingAtReadBoundary(t *testing.T) {
	d := NewDecoder(&chunkReader{chunks: []string{
		"data: one\n\n",
		"data: two\n\n",
	}})
	frames := drain(t, d)
	require.Len(t, frames, 2)
	assert.Equal(t, "one", string(frames[0].Data))
	assert.Equal(t, "two", string(frames[1].Data))
}

func TestDecoderCRLFFraming(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: hi\r\n\r\ndata: [DONE]\r\n\r\n"))
	frames := drain(t, d)
	require.Len(t, frames, 2)
	assert.Equal(t, "hi", string(frames[0].Data))
	assert.True(t, frames[1].Done)
}

func TestDecoderSkipsFramesWithoutData(t *testing.T) {
	d := NewDecoder(strings.NewReader(": keep-alive\n\nevent: ping\n\ndata: payload\n\n"))
	frames := drain(t, d)
	require.Len(t, frames, 1)
	assert.Equal(t, "payload", string(frames[0].Data))
}

func TestDecoderJoinsMultiLineData(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: delta\ndata: line1\ndata: line2\n\n"))
	frames := drain(t, d)
	require.Len(t, frames, 1)
	assert.Equal(t, "line1\nline2", string(frames[0].Data))
}

func TestDecoderDiscardsIncompleteTail(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: full\n\ndata: truncat"))
	frames := drain(t, d)
	require.Len(t, frames, 1)
	assert.Equal(t, "full", string(frames[0].Data))
}

func TestDecoderDataPrefixWithoutSpace(t *testing.T) {
	d := NewDecoder(strings.NewReader("data:compact\n\n"))
	frames := drain(t, d)
	require.Len(t, frames, 1)
	assert.Equal(t, "compact", string(frames[0].Data))
}
