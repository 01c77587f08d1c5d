package dbc

import (
	"github.com/kstaniek/go-vector-dbc/internal/bitlayout"
)

// Signal describes one field of a message's payload: its bit position and
// width, its byte order and numeric kind, its scale/offset/range, and the
// multiplexing role it plays, if any.
//
// Signals are built programmatically (there is no DBC text parser in this
// module); callers construct a Signal literal and attach it to a Message,
// then call Message.Refresh (directly, or via Database.Refresh) to
// validate and compile it.
type Signal struct {
	Name string

	// StartBit is the bit position as declared on the signal: for
	// little-endian signals this is the LSB position directly; for
	// big-endian signals it is the Motorola/MSB-first "start bit"
	// convention (see internal/bitlayout.StartBit).
	StartBit  int
	BitLength int
	ByteOrder bitlayout.ByteOrder

	IsSigned bool
	IsFloat  bool

	Scale     float64
	Offset    float64
	Minimum   float64
	Maximum   float64
	Unit      string
	Choices   map[int]string
	Comment   string
	Receivers []string

	// StartValue is the signal's default/start raw value (GenSigStartValue
	// in the original attribute store). HasStartValue distinguishes "set
	// to 0" from "not defined" — a signal missing from an Encode call
	// falls back to StartValue+Offset only when HasStartValue is true,
	// and otherwise fails.
	StartValue    float64
	HasStartValue bool

	// MultiplexerSignal is the name of the signal that selects the branch
	// this signal lives in; empty for a root-level (unconditional) signal.
	MultiplexerSignal string

	// MultiplexerIDs is the set of selector values under which this
	// signal is present. Ignored when MultiplexerSignal is empty.
	MultiplexerIDs map[int]struct{}

	// IsMultiplexer marks a signal as itself a selector: its own
	// (scaled-to-raw) encoded value picks which MultiplexerIDs branch of
	// its children is active.
	IsMultiplexer bool

	message *Message
}

func (s *Signal) SignalName() string              { return s.Name }
func (s *Signal) MuxParent() string                { return s.MultiplexerSignal }
func (s *Signal) IsMux() bool                      { return s.IsMultiplexer }
func (s *Signal) MuxIDs() map[int]struct{}         { return s.MultiplexerIDs }
func (s *Signal) MuxChoices() map[int]string       { return s.Choices }
func (s *Signal) Start() int                       { return s.StartBit }
func (s *Signal) Length() int                      { return s.BitLength }
func (s *Signal) Order() bitlayout.ByteOrder        { return s.ByteOrder }

func (s *Signal) kind() bitlayout.Kind {
	switch {
	case s.IsFloat:
		return bitlayout.KindFloat
	case s.IsSigned:
		return bitlayout.KindSint
	default:
		return bitlayout.KindUint
	}
}

func (s *Signal) field() bitlayout.Field {
	return bitlayout.Field{
		Name:      s.Name,
		Start:     s.StartBit,
		Length:    s.BitLength,
		ByteOrder: s.ByteOrder,
		Kind:      s.kind(),
	}
}

// choiceID returns the integer key whose choice string equals name.
func (s *Signal) choiceID(name string) (int, bool) {
	for id, label := range s.Choices {
		if label == name {
			return id, true
		}
	}
	return 0, false
}

// Encode encodes the whole owning message with this signal set to value
// and every other signal resolved by its own StartValue+Offset fallback,
// auto-selecting whichever multiplexer branch this signal is valid under.
// It is a convenience for exercising a single signal of interest without
// hand-assembling a full value map.
func (s *Signal) Encode(value any, opts ...EncodeOption) ([]byte, error) {
	if s.message == nil {
		return nil, newEncodeError("", s.Name, errMissingSignal)
	}
	values := s.message.defaultValues()
	values[s.Name] = value

	if s.MultiplexerSignal != "" && s.message.byName[s.MultiplexerSignal] != nil {
		for id := range s.MultiplexerIDs {
			values[s.MultiplexerSignal] = float64(id)
			break
		}
	}
	return s.message.Encode(values, opts...)
}
