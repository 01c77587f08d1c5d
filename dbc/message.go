// Package dbc models a Vector CANdb++ (DBC) signal database and encodes or
// decodes CAN frame payloads against it: bit layout, endianness,
// sign/float, scale/offset, choice tables and multiplexer trees. There is
// no DBC text parser here — databases are built programmatically and then
// compiled with Refresh, exactly as the upstream library also allows.
package dbc

import (
	"github.com/kstaniek/go-vector-dbc/frameid"
	"github.com/kstaniek/go-vector-dbc/internal/bitlayout"
	"github.com/kstaniek/go-vector-dbc/internal/muxtree"
	"github.com/kstaniek/go-vector-dbc/internal/validate"
)

// Message is one CAN frame definition: its identifier, payload length and
// signal set. Refresh compiles the signal set into a multiplex tree and
// per-node pack/unpack programs; Encode and Decode operate against that
// compiled form.
type Message struct {
	Name            string
	FrameID         uint32
	IsExtendedFrame bool
	Length          int
	Signals         []*Signal
	Senders         []string
	Comment         string

	// ProtocolType and UseGMParameterIDs are normally set by
	// Database.Refresh from the owning database's attributes; a
	// standalone Message may set them directly.
	ProtocolType      string // "" or "J1939"
	UseGMParameterIDs bool

	// NodeTxIdentifiers maps a sending node's name to the source
	// address/source id it transmits this message with, for
	// EncodeFromNode.
	NodeTxIdentifiers map[string]uint32

	// Strict enables fail-fast overlap/fit validation in Refresh.
	Strict bool

	tree        *muxtree.Node[*Signal]
	nodeFormats map[*muxtree.Node[*Signal]]bitlayout.Formats
	byName      map[string]*Signal
	variant     frameid.Variant
}

// Refresh sorts the signal list, rebuilds the multiplexer tree, validates
// bit layout (overlap/fit), compiles per-node pack/unpack programs, and
// computes the message's frame id variant. It must be called (directly,
// or via Database.Refresh) before Encode/Decode/DBCFrameID are used, and
// again after any signal is added, removed or edited.
func (m *Message) Refresh() error {
	for _, s := range m.Signals {
		if s.BitLength <= 0 {
			return newError("Refresh", s.Name, errZeroLengthSignal)
		}
		s.message = m
	}

	sorted := make([]*Signal, len(m.Signals))
	copy(sorted, m.Signals)
	sortSignalsByStartBit(sorted)
	m.Signals = sorted

	m.byName = make(map[string]*Signal, len(sorted))
	for _, s := range sorted {
		m.byName[s.Name] = s
	}

	m.tree = muxtree.Build(sorted)

	if _, err := validate.Tree[*Signal](m.tree, m.Length, m.Strict); err != nil {
		return newError("Refresh", m.Name, err)
	}

	m.nodeFormats = make(map[*muxtree.Node[*Signal]]bitlayout.Formats)
	muxtree.Walk(m.tree, func(n *muxtree.Node[*Signal]) {
		fields := make([]bitlayout.Field, len(n.Signals))
		for i, s := range n.Signals {
			fields[i] = s.field()
		}
		m.nodeFormats[n] = bitlayout.Build(fields, m.Length)
	})

	variant, err := m.computeFrameIDVariant()
	if err != nil {
		return newError("Refresh", m.Name, err)
	}
	m.variant = variant

	return nil
}

func (m *Message) computeFrameIDVariant() (frameid.Variant, error) {
	switch {
	case m.UseGMParameterIDs && m.IsExtendedFrame:
		return frameid.FromGMParameterIDExtended(m.FrameID)
	case m.UseGMParameterIDs:
		return frameid.FromGMParameterID(m.FrameID)
	case m.ProtocolType == "J1939":
		return frameid.FromFrameID(m.FrameID)
	default:
		return frameid.NewFrameId(m.FrameID, m.IsExtendedFrame)
	}
}

// FrameIDVariant returns the message's precomputed, typed frame identifier
// (REDESIGN: computed eagerly in Refresh, not re-derived on each access).
func (m *Message) FrameIDVariant() frameid.Variant { return m.variant }

// DBCFrameID returns the frame id variant's packed numeric value, which is
// equal to FrameID itself. EncodeFromNode does not change it; the
// sender-specific id is only returned by that call.
func (m *Message) DBCFrameID() uint32 {
	if m.variant == nil {
		return m.FrameID
	}
	return m.variant.FrameID()
}

// GetSignalByName looks up a signal by name.
func (m *Message) GetSignalByName(name string) (*Signal, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// IsMultiplexed reports whether any node in the message's tree selects
// children (root-level or nested/extended multiplexing).
func (m *Message) IsMultiplexed() bool {
	found := false
	muxtree.Walk(m.tree, func(n *muxtree.Node[*Signal]) {
		if n.Multiplexer != nil {
			found = true
		}
	})
	return found
}

// EncodeFromNode encodes values exactly like Encode, but if node has a
// registered tx identifier in NodeTxIdentifiers, the returned frame id has
// that node's source address (J1939) or source id (GM extended) spliced
// in, overriding the message's nominal one. This mirrors the sender-scoped
// identifier that multiple nodes transmitting the same logical message
// under different source addresses need.
func (m *Message) EncodeFromNode(node string, values map[string]any, opts ...EncodeOption) ([]byte, uint32, error) {
	payload, err := m.Encode(values, opts...)
	if err != nil {
		return nil, 0, err
	}

	id := m.DBCFrameID()
	tx, ok := m.NodeTxIdentifiers[node]
	if !ok {
		return payload, id, nil
	}

	switch v := m.variant.(type) {
	case frameid.J1939FrameId:
		v.SourceAddress = uint8(tx)
		id = v.FrameID()
	case frameid.GMParameterIdExtended:
		v.SourceID = uint16(tx)
		id = v.FrameID()
	}
	return payload, id, nil
}

// defaultValues builds an empty value map for Signal.Encode; every signal
// other than the one of interest is resolved by rawValueFor's own
// StartValue+Offset fallback, and fails the same way a full Message.Encode
// would for a signal with neither a supplied value nor a start value.
func (m *Message) defaultValues() map[string]any {
	return make(map[string]any, len(m.Signals))
}

func sortSignalsByStartBit(signals []*Signal) {
	// insertion sort: message signal counts are small (tens, not
	// thousands) and this keeps equal-StartBit signals (shouldn't occur,
	// but harmless) in input order.
	for i := 1; i < len(signals); i++ {
		j := i
		for j > 0 && bitlayout.StartBit(signals[j-1].field()) > bitlayout.StartBit(signals[j].field()) {
			signals[j-1], signals[j] = signals[j], signals[j-1]
			j--
		}
	}
}
