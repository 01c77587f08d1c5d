package frameid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJ1939FrameIdRoundTrip(t *testing.T) {
	f, err := FromPGN(0xFEE6, 3, 0, 0x17, 0)
	require.NoError(t, err)

	id := f.FrameID()
	got, err := FromFrameID(id)
	require.NoError(t, err)
	assert.Equal(t, f, got)

	pgn, err := got.PGN()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFEE6), pgn)
}

func TestJ1939PGNRejectsPDU1WithNonZeroSpecific(t *testing.T) {
	f := J1939FrameId{PDUFormat: 10, PDUSpecific: 5}
	_, err := f.PGN()
	require.Error(t, err)
}

func TestJ1939PDU1DestinationIsNotPartOfPGN(t *testing.T) {
	f, err := FromPGN(0x0A00, 6, 0, 0x01, 0x42)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), f.PDUSpecific)

	pgn, err := f.PGN()
	require.Error(t, err, "pdu_specific must be zero for a PDU1 PGN to be well-defined")
	assert.Zero(t, pgn)
}

func TestGMParameterIdEqualityIgnoresRequestType(t *testing.T) {
	a, err := NewGMParameterId(1, 0x23)
	require.NoError(t, err)
	b, err := NewGMParameterId(7, 0x23)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestGMParameterIdExtendedEqualityIgnoresSourceID(t *testing.T) {
	a, err := NewGMParameterIdExtended(1, 0x10, 0x20)
	require.NoError(t, err)
	b, err := NewGMParameterIdExtended(5, 0x10, 0x99)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.SourceID, b.SourceID)
}

func TestNewFrameIdRejectsOutOfRange(t *testing.T) {
	_, err := NewFrameId(0x800, false)
	require.Error(t, err)

	_, err = NewFrameId(0x7FF, false)
	require.NoError(t, err)
}

func TestFromFrameIDRejectsOutOfRange(t *testing.T) {
	_, err := FromFrameID(0x20000000)
	require.Error(t, err)
}
