// Package tracefmt codecs a recorded (non-live) stream of raw CAN frames:
// a flat sequence of 4-byte big-endian CAN ids, each followed by a 1-byte
// length and that many payload bytes. It never touches a socket — callers
// hand it an io.Reader/io.Writer over a file, buffer, or pipe, the same
// way a candump log would be replayed offline.
//
// The wire shape mirrors the cannelloni UDP tunnel framing, repurposed
// here to carry frames over a recorded byte stream instead.
package tracefmt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/kstaniek/go-vector-dbc/internal/canframe"
	"github.com/kstaniek/go-vector-dbc/internal/metrics"
)

// ErrInvalidLength is returned when a frame's length byte exceeds 64 (the
// CAN FD maximum payload).
var ErrInvalidLength = errors.New("tracefmt: invalid length")

// ErrTruncatedFrame is returned when the stream ends mid-frame.
var ErrTruncatedFrame = errors.New("tracefmt: truncated frame")

// Codec encodes/decodes trace frames. Stateless and safe for concurrent use.
type Codec struct{}

// Encode packs frames into a single byte slice.
func (c *Codec) Encode(frames []canframe.Frame) []byte {
	if len(frames) == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.Grow(len(frames) * (4 + 1 + 8))
	_, _ = c.EncodeTo(&buf, frames)
	return buf.Bytes()
}

// EncodeTo writes the wire representation of frames to w and returns the
// number of bytes written.
func (c *Codec) EncodeTo(w io.Writer, frames []canframe.Frame) (int, error) {
	var total int
	for _, f := range frames {
		var id [4]byte
		binary.BigEndian.PutUint32(id[:], f.ID)
		n, err := w.Write(id[:])
		total += n
		if err != nil {
			return total, fmt.Errorf("tracefmt encode id: %w", err)
		}
		n, err = w.Write([]byte{byte(len(f.Data))})
		total += n
		if err != nil {
			return total, fmt.Errorf("tracefmt encode len: %w", err)
		}
		if len(f.Data) > 0 {
			n, err = w.Write(f.Data)
			total += n
			if err != nil {
				return total, fmt.Errorf("tracefmt encode data: %w", err)
			}
		}
	}
	return total, nil
}

// Decode reads exactly one frame from r, returning io.EOF at a clean frame
// boundary with no more data available.
func (c *Codec) Decode(r io.Reader) (canframe.Frame, error) {
	var f canframe.Frame
	var idb [4]byte
	if _, err := io.ReadFull(r, idb[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			metrics.IncTraceMalformed()
			return f, fmt.Errorf("tracefmt decode id: %w", ErrTruncatedFrame)
		}
		return f, err
	}
	f.ID = binary.BigEndian.Uint32(idb[:])

	var lb [1]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		if errors.Is(err, io.EOF) {
			metrics.IncTraceMalformed()
			return f, fmt.Errorf("tracefmt decode len: %w", ErrTruncatedFrame)
		}
		return f, err
	}
	length := int(lb[0])
	if length > 64 {
		metrics.IncTraceMalformed()
		return f, fmt.Errorf("tracefmt decode: %w (%d)", ErrInvalidLength, length)
	}
	if length > 0 {
		f.Data = make([]byte, length)
		if _, err := io.ReadFull(r, f.Data); err != nil {
			metrics.IncTraceMalformed()
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return f, fmt.Errorf("tracefmt decode payload: %w", ErrTruncatedFrame)
			}
			return f, fmt.Errorf("tracefmt decode payload: %w", err)
		}
	}
	return f, nil
}

// DecodeN decodes up to max frames (or until EOF if max<=0), invoking
// onFrame for each and counting it via internal/metrics.
func (c *Codec) DecodeN(r io.Reader, max int, onFrame func(canframe.Frame)) (int, error) {
	var n int
	for max <= 0 || n < max {
		fr, err := c.Decode(r)
		if err != nil {
			return n, err
		}
		metrics.IncTraceFrameReplayed()
		onFrame(fr)
		n++
	}
	return n, nil
}
