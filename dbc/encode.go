package dbc

import (
	"math/big"

	"github.com/kstaniek/go-vector-dbc/internal/bitlayout"
	"github.com/kstaniek/go-vector-dbc/internal/metrics"
	"github.com/kstaniek/go-vector-dbc/internal/muxtree"
	"github.com/kstaniek/go-vector-dbc/internal/scale"
)

// EncodeOption customizes a single Message.Encode / Signal.Encode call.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	scaling bool
	padding bool
}

func newEncodeConfig() encodeConfig { return encodeConfig{scaling: true} }

// WithoutScaling treats every value in the map as an already-raw integer
// or float, skipping scale/offset and range checking entirely.
func WithoutScaling() EncodeOption { return func(c *encodeConfig) { c.scaling = false } }

// WithPadding fills every bit no signal on the encoded path claims with 1,
// matching CANdb++'s convention for unused bits.
func WithPadding() EncodeOption { return func(c *encodeConfig) { c.padding = true } }

// Encode packs values (keyed by signal name) into a Length-byte frame
// payload, recursively walking the multiplexer tree: at each node every
// signal present there is packed, then if the node has a selector signal,
// its encoded value picks which child to descend into next.
//
// A value may be a number (int/int64/float64/...) or, for a signal with a
// choices table, the choice's string label. Values for signals outside the
// selected multiplexer path are ignored, matching the original's behavior
// of silently skipping inactive branches.
func (m *Message) Encode(values map[string]any, opts ...EncodeOption) ([]byte, error) {
	cfg := newEncodeConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if m.tree == nil {
		if err := m.Refresh(); err != nil {
			return nil, err
		}
	}

	metrics.IncEncode()

	buf := make([]byte, m.Length)
	padMask := big.NewInt(-1) // infinite-precision all-ones; AND narrows it down as nodes are visited

	if err := m.encodeNode(m.tree, values, buf, cfg, padMask); err != nil {
		metrics.IncEncodeError(reasonForEncodeErr(err))
		return nil, err
	}

	if cfg.padding {
		orBigIntInto(buf, padMask)
	}
	return buf, nil
}

func (m *Message) encodeNode(node *muxtree.Node[*Signal], values map[string]any, buf []byte, cfg encodeConfig, padMask *big.Int) error {
	formats := m.nodeFormats[node]

	bigVals := make(map[string]bitlayout.Value)
	littleVals := make(map[string]bitlayout.Value)
	for _, s := range node.Signals {
		raw, err := m.rawValueFor(s, values, cfg)
		if err != nil {
			return err
		}
		if s.ByteOrder == bitlayout.BigEndian {
			bigVals[s.Name] = raw
		} else {
			littleVals[s.Name] = raw
		}
	}

	bigBytes, err := formats.Big.Pack(bigVals)
	if err != nil {
		return newEncodeError(m.Name, "", err)
	}
	littleBytes, err := formats.Little.Pack(littleVals)
	if err != nil {
		return newEncodeError(m.Name, "", err)
	}
	orBytesInto(buf, bigBytes)
	orBytesInto(buf, littleBytes)
	padMask.And(padMask, formats.PaddingMask)

	if node.Multiplexer == nil {
		return nil
	}
	sel := *node.Multiplexer
	selRaw, err := m.rawValueFor(sel, values, cfg)
	if err != nil {
		return err
	}
	child, ok := node.Children[int(selRaw.U)]
	if !ok {
		return newEncodeError(m.Name, sel.Name, errUnknownMuxID)
	}
	return m.encodeNode(child, values, buf, cfg, padMask)
}

// rawValueFor resolves a signal's value out of the caller's map into a raw
// bit-layout value, applying scale/offset (unless cfg.scaling is false)
// and, under strict mode with scaling on, range-checking the physical
// value against [Minimum, Maximum]. A signal absent from values falls
// back to StartValue+Offset when the signal declares one, matching the
// original's gen_sig_start_value fallback.
func (m *Message) rawValueFor(s *Signal, values map[string]any, cfg encodeConfig) (bitlayout.Value, error) {
	v, ok := values[s.Name]
	if !ok {
		if !s.HasStartValue {
			return bitlayout.Value{}, newEncodeError(m.Name, s.Name, errMissingSignal)
		}
		v = s.StartValue + s.Offset
	}

	if label, ok := v.(string); ok {
		id, found := s.choiceID(label)
		if !found {
			return bitlayout.Value{}, newEncodeError(m.Name, s.Name, errUnknownChoice)
		}
		return numericToRawValue(s, float64(id), false), nil
	}

	num, err := toFloat64(v)
	if err != nil {
		return bitlayout.Value{}, newEncodeError(m.Name, s.Name, err)
	}

	if cfg.scaling && m.Strict && !scale.InRange(num, s.Minimum, s.Maximum) {
		return bitlayout.Value{}, newEncodeError(m.Name, s.Name, errOutOfRange)
	}

	return numericToRawValue(s, num, cfg.scaling), nil
}

func numericToRawValue(s *Signal, num float64, scaling bool) bitlayout.Value {
	factor := s.Scale
	if factor == 0 {
		factor = 1
	}

	if s.IsFloat {
		raw := num
		if scaling {
			raw = scale.ToRawFloat(num, factor, s.Offset)
		}
		return bitlayout.Value{F: raw}
	}

	var rawInt int64
	if scaling {
		rawInt = scale.ToRaw(num, factor, s.Offset)
	} else {
		rawInt = int64(num)
	}
	if s.IsSigned {
		return bitlayout.Value{S: rawInt}
	}
	return bitlayout.Value{U: uint64(rawInt)}
}

func orBytesInto(buf, other []byte) {
	for i := range buf {
		buf[i] |= other[i]
	}
}

func orBigIntInto(buf []byte, mask *big.Int) {
	maskBytes := make([]byte, len(buf))
	mb := mask.Bytes()
	copy(maskBytes[len(buf)-len(mb):], mb)
	orBytesInto(buf, maskBytes)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, errBadValueType
	}
}

func reasonForEncodeErr(err error) string {
	switch {
	case isErr(err, errMissingSignal):
		return metrics.ReasonMissingSignal
	case isErr(err, errOutOfRange):
		return metrics.ReasonOutOfRange
	case isErr(err, errUnknownMuxID):
		return metrics.ReasonBadMux
	case isErr(err, errUnknownChoice):
		return metrics.ReasonBadChoice
	default:
		return "other"
	}
}
