package storage

import (
	"testing"
	"time"

	"github.com/poiesic/factcheck/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	ids := []core.ID{0, 42, core.ID(18446744073709551615), core.IDFromContent("test content")}
	for _, id := range ids {
		decoded, err := UnmarshalID(MarshalID(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}

	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalFactRecord(t *testing.T) {
	record := &core.FactRecord{
		ID:             core.ID(7),
		RawText:        "NBA released ₹39.84 crore to Andhra Pradesh",
		NormalizedText: "nba released ₹39.84 crore to andhra pradesh",
		Quantities: []core.Quantity{
			{Value: 398400000, Unit: "INR", Span: [2]int{13, 31}},
			{Value: 2025, Unit: "year", Span: [2]int{40, 44}},
		},
		Entities:   []string{"andhra pradesh", "nba"},
		SourceDate: "2025-01-10",
		Source:     "PIB",
		Title:      "Red Sanders conservation",
		URL:        "https://pib.gov.in/PressReleasePage.aspx?PRID=1",
		Vector:     []float32{0.25, -0.5, 0.75},
	}

	decoded, err := UnmarshalFactRecord(MarshalFactRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestMarshalUnmarshalFactRecord_Empty(t *testing.T) {
	record := &core.FactRecord{ID: 1, RawText: "statement"}

	decoded, err := UnmarshalFactRecord(MarshalFactRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
	assert.Nil(t, decoded.Quantities)
	assert.Nil(t, decoded.Vector)
}

func TestUnmarshalFactRecord_Truncated(t *testing.T) {
	record := &core.FactRecord{
		ID:      3,
		RawText: "statement",
		Vector:  []float32{1, 2, 3, 4},
	}
	data := MarshalFactRecord(record)

	_, err := UnmarshalFactRecord(data[:len(data)-5])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalSnapshotHeader(t *testing.T) {
	header := SnapshotHeader{
		Generation:     4,
		Dimension:      384,
		Metric:         "cosine",
		Count:          120,
		EmbeddingModel: "all-minilm",
		BuiltAt:        time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalSnapshotHeader(MarshalSnapshotHeader(header))
	require.NoError(t, err)
	assert.Equal(t, header, decoded)
}
