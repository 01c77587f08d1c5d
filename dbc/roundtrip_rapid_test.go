package dbc

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/kstaniek/go-vector-dbc/internal/bitlayout"
)

// TestRoundTripProperty exercises the round-trip law: decode(encode(v)) == v
// for scalar little/big-endian unsigned signals of varying width and
// position, the foundational property the rest of the codec builds on.
func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numBytes := 8
		length := rapid.IntRange(1, 8).Draw(rt, "length")
		sb := rapid.IntRange(0, 8*numBytes-length).Draw(rt, "sb")
		bigEndian := rapid.Bool().Draw(rt, "bigEndian")

		order := bitlayout.LittleEndian
		start := sb
		if bigEndian {
			order = bitlayout.BigEndian
			start = 8*(sb/8) + (7 - sb%8)
		}

		m := &Message{
			Name:    "Prop",
			FrameID: 0x1,
			Length:  numBytes,
			Signals: []*Signal{
				{Name: "V", StartBit: start, BitLength: length, ByteOrder: order},
			},
		}
		if err := m.Refresh(); err != nil {
			rt.Skip("overlapping/invalid draw")
		}

		maxVal := uint64(1)<<uint(length) - 1
		value := rapid.Uint64Range(0, maxVal).Draw(rt, "value")

		data, err := m.Encode(map[string]any{"V": float64(value)}, WithoutScaling())
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		values, err := m.Decode(data, WithoutDecodeScaling())
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		got := values["V"].(int64)
		if uint64(got) != value {
			rt.Fatalf("round trip mismatch: want %d got %d (start=%d length=%d big=%v)", value, got, start, length, bigEndian)
		}
	})
}

// TestPaddingIdempotent checks that an encode with WithPadding sets every
// unclaimed bit to 1 (so OR-ing the padding mask in again changes nothing)
// while leaving the signal's own claimed byte intact.
func TestPaddingIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.Uint64Range(0, 255).Draw(rt, "value")
		m := &Message{
			Name:    "Pad",
			FrameID: 0x2,
			Length:  4,
			Signals: []*Signal{
				{Name: "V", StartBit: 0, BitLength: 8, ByteOrder: bitlayout.LittleEndian},
			},
		}
		if err := m.Refresh(); err != nil {
			rt.Fatal(err)
		}
		data, err := m.Encode(map[string]any{"V": float64(value)}, WithoutScaling(), WithPadding())
		if err != nil {
			rt.Fatal(err)
		}
		if data[0] != byte(value) {
			rt.Fatalf("padding clobbered claimed byte: want %d got %d", value, data[0])
		}
		for i := 1; i < 4; i++ {
			if data[i] != 0xFF {
				rt.Fatalf("padding byte %d not filled: %#x", i, data[i])
			}
		}
	})
}

// TestBitDisjointness verifies that two non-overlapping signals never
// clobber each other's bits regardless of which byte order either uses.
func TestBitDisjointness(t *testing.T) {
	m := &Message{
		Name:    "Disjoint",
		FrameID: 0x3,
		Length:  2,
		Signals: []*Signal{
			{Name: "Lo", StartBit: 0, BitLength: 8, ByteOrder: bitlayout.LittleEndian},
			{Name: "Hi", StartBit: 15, BitLength: 8, ByteOrder: bitlayout.BigEndian},
		},
	}
	if err := m.Refresh(); err != nil {
		t.Fatal(err)
	}
	data, err := m.Encode(map[string]any{"Lo": 0x11, "Hi": 0x22}, WithoutScaling())
	if err != nil {
		t.Fatal(err)
	}
	values, err := m.Decode(data, WithoutDecodeScaling())
	if err != nil {
		t.Fatal(err)
	}
	if values["Lo"].(int64) != 0x11 || values["Hi"].(int64) != 0x22 {
		t.Fatalf("unexpected values: %+v (bytes %x)", values, data)
	}
}
