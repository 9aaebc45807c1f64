// Package sse decodes server-sent-event style byte streams into
// discrete frames, independent of any provider's event semantics.
package sse

import (
	"bytes"
	"io"
)

const dataPrefix = "data:"

// doneSentinel terminates OpenAI-style streams.
const doneSentinel = "[DONE]"

// Frame is one decoded event. Done marks the [DONE] sentinel; for all
// other frames Data holds the raw payload after the data: prefix.
type Frame struct {
	Data []byte
	Done bool
}

// Decoder splits a byte stream on blank-line frame separators,
// buffering partial frames across reads. A frame spanning two reads is
// decoded exactly once; a frame ending exactly at a read boundary is
// not dropped. Carriage returns are stripped so CRLF framing decodes
// the same as LF.
type Decoder struct {
	r       io.Reader
	pending []byte
	chunk   []byte
	err     error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, chunk: make([]byte, 4096)}
}

// Next returns the next complete frame. It returns io.EOF once the
// stream is exhausted; an incomplete trailing frame is discarded, the
// way a terminated stream leaves it.
func (d *Decoder) Next() (Frame, error) {
	for {
		if frame, ok := d.takeFrame(); ok {
			return frame, nil
		}
		if d.err != nil {
			return Frame{}, d.err
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.pending = append(d.pending, bytes.ReplaceAll(d.chunk[:n], []byte("\r"), nil)...)
		}
		if err != nil {
			d.err = err
		}
	}
}

// takeFrame extracts one frame from the buffer if a full separator has
// arrived. Frames without a data line (comments, keep-alives) are
// skipped.
func (d *Decoder) takeFrame() (Frame, bool) {
	for {
		idx := bytes.Index(d.pending, []byte("\n\n"))
		if idx < 0 {
			return Frame{}, false
		}

		raw := d.pending[:idx]
		rest := make([]byte, len(d.pending)-idx-2)
		copy(rest, d.pending[idx+2:])
		d.pending = rest

		data, ok := extractData(raw)
		if !ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(data), []byte(doneSentinel)) {
			return Frame{Done: true}, true
		}
		return Frame{Data: data}, true
	}
}

// extractData collects the payload of every data: line in the frame.
// Multi-line payloads are joined with newlines, as SSE defines;
// event:, id: and comment lines are ignored.
func extractData(frame []byte) ([]byte, bool) {
	var out []byte
	found := false
	for _, line := range bytes.Split(frame, []byte("\n")) {
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}
		payload := bytes.TrimPrefix(line, []byte(dataPrefix))
		payload = bytes.TrimPrefix(payload, []byte(" "))
		if found {
			out = append(out, '\n')
		}
		out = append(out, payload...)
		found = true
	}
	return out, found
}
