package dbc

import (
	"errors"
	"io"

	"github.com/kstaniek/go-vector-dbc/internal/broadcast"
	"github.com/kstaniek/go-vector-dbc/internal/canframe"
	"github.com/kstaniek/go-vector-dbc/internal/tracefmt"
)

// ReplayTrace reads a recorded (non-live) stream of raw CAN frames from r,
// via internal/tracefmt, looks each one up in db by frame id, decodes it,
// and publishes the result to pub (which may be nil to skip publishing).
// Frames whose id isn't present in db are silently skipped, matching the
// behavior of any CAN trace analysis tool that only cares about known
// messages. It returns the number of frames decoded and the terminal
// error, which is io.EOF on a clean end of stream.
func ReplayTrace(r io.Reader, db *Database, pub *broadcast.Broadcaster, opts ...DecodeOption) (int, error) {
	codec := tracefmt.Codec{}
	var decoded int
	var lastErr error
	_, err := codec.DecodeN(r, 0, func(f canframe.Frame) {
		m, ok := db.GetMessageByFrameID(f.ArbitrationID())
		if !ok {
			return
		}
		values, err := m.Decode(f.Data, opts...)
		if err != nil {
			lastErr = err
			return
		}
		decoded++
		if pub != nil {
			pub.Publish(broadcast.Decoded{Message: m.Name, Values: values})
		}
	})
	if lastErr != nil {
		return decoded, lastErr
	}
	if errors.Is(err, io.EOF) {
		return decoded, io.EOF
	}
	return decoded, err
}
