// Package frameid models the CAN frame identifier variants a Message can
// carry: a raw identifier, a J1939 PDU identifier, and the two GM parameter
// id encodings. Each variant packs to and unpacks from the identifier's
// plain uint32 representation bit-exactly.
package frameid

import (
	"fmt"
)

// Error reports a structurally invalid frame identifier: a field out of
// its declared bit range, or a PGN request against a PDU1 (non-broadcast)
// format frame.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("frameid: %s: %s", e.Op, e.Msg) }

func newErr(op, msg string) error { return &Error{Op: op, Msg: msg} }

// Variant is implemented by every frame id kind so callers can hold one
// without a type switch when they just need the wire value.
type Variant interface {
	// FrameID returns the packed identifier as it would sit in a frame's
	// arbitration field (29 bits for extended, 11 for standard — callers
	// fold in the EFF flag themselves, see internal/canframe).
	FrameID() uint32
	String() string
}

// FrameId is a plain, unstructured identifier: the raw arbitration id with
// no further decomposition.
type FrameId struct {
	ID       uint32
	Extended bool
}

func NewFrameId(id uint32, extended bool) (FrameId, error) {
	max := uint32(0x7FF)
	if extended {
		max = 0x1FFFFFFF
	}
	if id > max {
		return FrameId{}, newErr("NewFrameId", fmt.Sprintf("id %#x exceeds %d-bit range", id, bitsFor(extended)))
	}
	return FrameId{ID: id, Extended: extended}, nil
}

func (f FrameId) FrameID() uint32 { return f.ID }
func (f FrameId) String() string  { return fmt.Sprintf("%#x", f.ID) }

func bitsFor(extended bool) int {
	if extended {
		return 29
	}
	return 11
}

// J1939FrameId decomposes a 29-bit extended identifier per SAE J1939:
// priority(3) | reserved(1) | data page(1) | PDU format(8) | PDU specific(8)
// | source address(8).
type J1939FrameId struct {
	Priority      uint8
	Reserved      uint8
	DataPage      uint8
	PDUFormat     uint8
	PDUSpecific   uint8
	SourceAddress uint8
}

// FromFrameID decomposes a raw 29-bit identifier into its J1939 fields.
func FromFrameID(id uint32) (J1939FrameId, error) {
	if id > 0x1FFFFFFF {
		return J1939FrameId{}, newErr("FromFrameID", fmt.Sprintf("id %#x exceeds 29-bit range", id))
	}
	return J1939FrameId{
		Priority:      uint8((id >> 26) & 0x7),
		Reserved:      uint8((id >> 25) & 0x1),
		DataPage:      uint8((id >> 24) & 0x1),
		PDUFormat:     uint8((id >> 16) & 0xFF),
		PDUSpecific:   uint8((id >> 8) & 0xFF),
		SourceAddress: uint8(id),
	}, nil
}

// FromPGN builds a J1939FrameId from a PGN plus the remaining fields that
// the PGN alone doesn't carry. destination is folded into PDUSpecific when
// the PGN is PDU1 (point-to-point, PDUFormat < 240); for PDU2 (broadcast)
// frames PDUSpecific is the PGN's own group-extension byte and destination
// is ignored.
func FromPGN(pgn uint32, priority, dataPage uint8, source, destination uint8) (J1939FrameId, error) {
	if pgn > 0x3FFFF {
		return J1939FrameId{}, newErr("FromPGN", fmt.Sprintf("pgn %#x exceeds 18-bit range", pgn))
	}
	pf := uint8((pgn >> 8) & 0xFF)
	ps := uint8(pgn)
	if pf < 240 {
		ps = destination
	}
	return J1939FrameId{
		Priority:      priority & 0x7,
		DataPage:      dataPage & 0x1,
		PDUFormat:     pf,
		PDUSpecific:   ps,
		SourceAddress: source,
	}, nil
}

func (f J1939FrameId) FrameID() uint32 {
	return uint32(f.Priority&0x7)<<26 |
		uint32(f.Reserved&0x1)<<25 |
		uint32(f.DataPage&0x1)<<24 |
		uint32(f.PDUFormat)<<16 |
		uint32(f.PDUSpecific)<<8 |
		uint32(f.SourceAddress)
}

// PGN extracts the 18-bit Parameter Group Number. PDU1 (point-to-point)
// frames — PDUFormat < 240 — only have a well-defined PGN when
// PDUSpecific is zero (the destination address byte is not part of the
// PGN); any other PDU1 frame returns an error, matching the original's
// behavior.
func (f J1939FrameId) PGN() (uint32, error) {
	if f.PDUFormat < 240 && f.PDUSpecific != 0 {
		return 0, newErr("PGN", "PDU1 frame (pdu_format < 240) requires pdu_specific == 0")
	}
	return uint32(f.Reserved&0x1)<<17 | uint32(f.DataPage&0x1)<<16 | uint32(f.PDUFormat)<<8 | uint32(f.PDUSpecific), nil
}

func (f J1939FrameId) String() string { return fmt.Sprintf("%#x", f.FrameID()) }

// GMParameterId is GM's 16-bit non-extended identifier: an 8-bit request
// type and an 8-bit arbitration id. Two GMParameterId values compare equal
// when their ArbitrationID fields match, regardless of RequestType — this
// mirrors the original's equality, which ignores the request type.
type GMParameterId struct {
	RequestType   uint8
	ArbitrationID uint8
}

func NewGMParameterId(requestType uint8, arbitrationID uint8) (GMParameterId, error) {
	return GMParameterId{RequestType: requestType, ArbitrationID: arbitrationID}, nil
}

func (g GMParameterId) FrameID() uint32 {
	return uint32(g.RequestType)<<8 | uint32(g.ArbitrationID)
}

func (g GMParameterId) String() string { return fmt.Sprintf("%#x", g.FrameID()) }

// Equal compares by ArbitrationID only, per the original's __eq__.
func (g GMParameterId) Equal(other GMParameterId) bool { return g.ArbitrationID == other.ArbitrationID }

// GMParameterIdExtended is GM's 29-bit extended identifier: priority(3),
// parameter id(13), source id(13). Equality compares ParameterID only.
type GMParameterIdExtended struct {
	Priority    uint8
	ParameterID uint16
	SourceID    uint16
}

func NewGMParameterIdExtended(priority uint8, parameterID, sourceID uint16) (GMParameterIdExtended, error) {
	if parameterID > 0x1FFF {
		return GMParameterIdExtended{}, newErr("NewGMParameterIdExtended", fmt.Sprintf("parameter id %#x exceeds 13-bit range", parameterID))
	}
	if sourceID > 0x1FFF {
		return GMParameterIdExtended{}, newErr("NewGMParameterIdExtended", fmt.Sprintf("source id %#x exceeds 13-bit range", sourceID))
	}
	return GMParameterIdExtended{Priority: priority & 0x7, ParameterID: parameterID, SourceID: sourceID}, nil
}

func (g GMParameterIdExtended) FrameID() uint32 {
	return uint32(g.Priority&0x7)<<26 | uint32(g.ParameterID&0x1FFF)<<13 | uint32(g.SourceID&0x1FFF)
}

func (g GMParameterIdExtended) String() string { return fmt.Sprintf("%#x", g.FrameID()) }

// Equal compares by ParameterID only, per the original's __eq__.
func (g GMParameterIdExtended) Equal(other GMParameterIdExtended) bool {
	return g.ParameterID == other.ParameterID
}

// FromGMParameterID decomposes a raw 16-bit (wire-width, stored in the low
// 16 bits of a uint32) non-extended GM identifier.
func FromGMParameterID(id uint32) (GMParameterId, error) {
	if id > 0xFFFF {
		return GMParameterId{}, newErr("FromGMParameterID", fmt.Sprintf("id %#x exceeds 16-bit range", id))
	}
	return GMParameterId{
		RequestType:   uint8((id >> 8) & 0xFF),
		ArbitrationID: uint8(id & 0xFF),
	}, nil
}

// FromGMParameterIDExtended decomposes a raw 29-bit extended GM identifier.
func FromGMParameterIDExtended(id uint32) (GMParameterIdExtended, error) {
	if id > 0x1FFFFFFF {
		return GMParameterIdExtended{}, newErr("FromGMParameterIDExtended", fmt.Sprintf("id %#x exceeds 29-bit range", id))
	}
	return GMParameterIdExtended{
		Priority:    uint8((id >> 26) & 0x7),
		ParameterID: uint16((id >> 13) & 0x1FFF),
		SourceID:    uint16(id & 0x1FFF),
	}, nil
}
