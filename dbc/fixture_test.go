package dbc

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kstaniek/go-vector-dbc/internal/bitlayout"
)

// signalFixture/messageFixture/databaseFixture are the YAML shape used by
// table-driven tests to declare a database without a giant Go literal, the
// same role samoyed's YAML-backed config tests play for that repo's
// tnc/channel tables.
type signalFixture struct {
	Name              string         `yaml:"name"`
	StartBit          int            `yaml:"start_bit"`
	BitLength         int            `yaml:"bit_length"`
	ByteOrder         string         `yaml:"byte_order"` // "big" or "little"
	IsSigned          bool           `yaml:"is_signed"`
	IsFloat           bool           `yaml:"is_float"`
	Scale             float64        `yaml:"scale"`
	Offset            float64        `yaml:"offset"`
	Minimum           float64        `yaml:"minimum"`
	Maximum           float64        `yaml:"maximum"`
	Unit              string         `yaml:"unit"`
	Choices           map[int]string `yaml:"choices"`
	StartValue        float64        `yaml:"start_value"`
	MultiplexerSignal string         `yaml:"multiplexer_signal"`
	MultiplexerIDs    []int          `yaml:"multiplexer_ids"`
	IsMultiplexer     bool           `yaml:"is_multiplexer"`
}

type messageFixture struct {
	Name     string           `yaml:"name"`
	FrameID  uint32           `yaml:"frame_id"`
	Extended bool             `yaml:"extended"`
	Length   int              `yaml:"length"`
	Strict   bool             `yaml:"strict"`
	Signals  []signalFixture  `yaml:"signals"`
	Nodes    map[string]uint32 `yaml:"node_tx_identifiers"`
}

type databaseFixture struct {
	ProtocolType string           `yaml:"protocol_type"`
	Messages     []messageFixture `yaml:"messages"`
}

func loadDatabaseFixture(t *testing.T, path string) *Database {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var fx databaseFixture
	require.NoError(t, yaml.Unmarshal(raw, &fx))

	db := &Database{ProtocolType: fx.ProtocolType}
	for _, mf := range fx.Messages {
		m := &Message{
			Name:              mf.Name,
			FrameID:           mf.FrameID,
			IsExtendedFrame:   mf.Extended,
			Length:            mf.Length,
			Strict:            mf.Strict,
			NodeTxIdentifiers: mf.Nodes,
		}
		for _, sf := range mf.Signals {
			order := bitlayout.LittleEndian
			if sf.ByteOrder == "big" {
				order = bitlayout.BigEndian
			}
			var ids map[int]struct{}
			if len(sf.MultiplexerIDs) > 0 {
				ids = make(map[int]struct{}, len(sf.MultiplexerIDs))
				for _, id := range sf.MultiplexerIDs {
					ids[id] = struct{}{}
				}
			}
			m.Signals = append(m.Signals, &Signal{
				Name:              sf.Name,
				StartBit:          sf.StartBit,
				BitLength:         sf.BitLength,
				ByteOrder:         order,
				IsSigned:          sf.IsSigned,
				IsFloat:           sf.IsFloat,
				Scale:             sf.Scale,
				Offset:            sf.Offset,
				Minimum:           sf.Minimum,
				Maximum:           sf.Maximum,
				Unit:              sf.Unit,
				Choices:           sf.Choices,
				StartValue:        sf.StartValue,
				MultiplexerSignal: sf.MultiplexerSignal,
				MultiplexerIDs:    ids,
				IsMultiplexer:     sf.IsMultiplexer,
			})
		}
		db.Messages = append(db.Messages, m)
	}
	require.NoError(t, db.Refresh())
	return db
}

func TestDatabaseFromYAMLFixtureRoundTrip(t *testing.T) {
	db := loadDatabaseFixture(t, "testdata/engine_db.yaml")

	values := map[string]any{
		"EngineSpeed": 1500.0,
		"EngineTemp":  90.0,
	}
	payload, err := db.EncodeMessage("EngineStatus", values)
	require.NoError(t, err)

	decoded, err := db.DecodeMessage(0x100, payload)
	require.NoError(t, err)
	require.InDelta(t, 1500.0, decoded["EngineSpeed"], 0.1)
	require.InDelta(t, 90.0, decoded["EngineTemp"], 0.1)
}

func TestDatabaseFromYAMLFixtureMultiplexed(t *testing.T) {
	db := loadDatabaseFixture(t, "testdata/diag_db.yaml")

	payload, err := db.EncodeMessage("DiagResponse", map[string]any{
		"Selector": 1.0,
		"TempC":    55.0,
	})
	require.NoError(t, err)

	decoded, err := db.DecodeMessage(0x200, payload)
	require.NoError(t, err)
	require.InDelta(t, 55.0, decoded["TempC"], 0.1)
}
