package dbc

import (
	"fmt"

	"github.com/kstaniek/go-vector-dbc/internal/logging"
)

// Database is a collection of messages sharing one arbitration protocol
// and GM-parameter-id convention. It is the top-level façade: callers
// build it programmatically (append to Messages, set Nodes/ProtocolType),
// call Refresh, and then use GetMessage/EncodeMessage/DecodeMessage.
type Database struct {
	Messages []*Message
	Nodes    []string

	// ProtocolType ("" or "J1939") and UseGMParameterIDs are copied onto
	// every message by Refresh; these are the two plain attributes this
	// implementation models from the original's broader attribute store.
	ProtocolType      string
	UseGMParameterIDs bool

	// Strict is copied onto every message's Strict field by Refresh.
	Strict bool

	byName    map[string]*Message
	byFrameID map[uint32]*Message
}

// Refresh propagates database-level attributes onto every message, calls
// Message.Refresh on each, and rebuilds the name/frame-id lookup indexes.
// A duplicate message name or a frame id collision (after EFF-flag
// masking) is last-write-wins, as in the original, and is logged.
func (db *Database) Refresh() error {
	db.byName = make(map[string]*Message, len(db.Messages))
	db.byFrameID = make(map[uint32]*Message, len(db.Messages))

	for _, m := range db.Messages {
		m.ProtocolType = db.ProtocolType
		m.UseGMParameterIDs = db.UseGMParameterIDs
		m.Strict = db.Strict

		if err := m.Refresh(); err != nil {
			return err
		}

		if prev, ok := db.byName[m.Name]; ok && prev != m {
			logging.L().Warn("duplicate_message_name", "name", m.Name)
		}
		db.byName[m.Name] = m

		id := m.DBCFrameID()
		if prev, ok := db.byFrameID[id]; ok && prev != m {
			logging.L().Warn("frame_id_collision", "frame_id", fmt.Sprintf("%#x", id), "existing", prev.Name, "new", m.Name)
		}
		db.byFrameID[id] = m
	}
	return nil
}

// GetMessageByName looks up a message by name.
func (db *Database) GetMessageByName(name string) (*Message, bool) {
	m, ok := db.byName[name]
	return m, ok
}

// GetMessageByFrameID looks up a message by its packed frame id.
func (db *Database) GetMessageByFrameID(id uint32) (*Message, bool) {
	m, ok := db.byFrameID[id]
	return m, ok
}

// EncodeMessage looks up a message by name and encodes values against it.
func (db *Database) EncodeMessage(name string, values map[string]any, opts ...EncodeOption) ([]byte, error) {
	m, ok := db.GetMessageByName(name)
	if !ok {
		return nil, newError("EncodeMessage", name, fmt.Errorf("no such message"))
	}
	return m.Encode(values, opts...)
}

// DecodeMessage looks up a message by frame id and decodes data against it.
func (db *Database) DecodeMessage(id uint32, data []byte, opts ...DecodeOption) (map[string]any, error) {
	m, ok := db.GetMessageByFrameID(id)
	if !ok {
		return nil, newError("DecodeMessage", fmt.Sprintf("%#x", id), fmt.Errorf("no such message"))
	}
	return m.Decode(data, opts...)
}
