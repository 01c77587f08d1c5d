package tracefmt

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/kstaniek/go-vector-dbc/internal/canframe"
)

func mkFrame(id uint32, n int) canframe.Frame {
	if n < 0 {
		n = 0
	}
	if n > 8 {
		n = 8
	}
	data := make([]byte, n)
	_, _ = rand.Read(data)
	return canframe.Frame{ID: id | canframe.EFFFlag, Data: data}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := Codec{}
	in := []canframe.Frame{
		mkFrame(0x1E5A, 8),
		mkFrame(0x1F55, 6),
		mkFrame(0x12345, 0),
	}

	wire := codec.Encode(in)
	var out []canframe.Frame
	br := bytes.NewReader(wire)
	n, err := codec.DecodeN(br, 0, func(f canframe.Frame) { out = append(out, f.CopyShallow()) })
	if err != io.EOF && err != nil {
		t.Fatalf("DecodeN unexpected err: %v", err)
	}
	if n != len(in) {
		t.Fatalf("decoded %d, want %d", n, len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || !bytes.Equal(out[i].Data, in[i].Data) {
			t.Fatalf("frame %d mismatch", i)
		}
	}
}

func TestCodecEncodeToMatchesEncode(t *testing.T) {
	codec := Codec{}
	frames := []canframe.Frame{mkFrame(0x10, 8), mkFrame(0x11, 3)}
	a := codec.Encode(frames)
	var buf bytes.Buffer
	if _, err := codec.EncodeTo(&buf, frames); err != nil {
		t.Fatalf("EncodeTo: %v", err)
	}
	if !bytes.Equal(a, buf.Bytes()) {
		t.Fatalf("EncodeTo diverged from Encode")
	}
}

func TestDecodeRejectsInvalidLength(t *testing.T) {
	codec := Codec{}
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1, 200}) // length byte 200 > 64
	if _, err := codec.Decode(&buf); err == nil {
		t.Fatal("expected error for invalid length")
	}
}

func TestDecodeReportsTruncatedFrame(t *testing.T) {
	codec := Codec{}
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1, 8, 1, 2}) // declares 8 bytes, only 2 present
	if _, err := codec.Decode(&buf); err == nil {
		t.Fatal("expected truncated frame error")
	}
}
