package storage

import (
	"testing"
	"time"

	"github.com/poiesic/pdfqa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name string
		doc  *core.Document
	}{
		{
			name: "full document",
			doc: &core.Document{
				Id:             core.IDFromContent("%PDF-1.4 geography"),
				Name:           "geography.pdf",
				Path:           "/data/uploads/geography.pdf",
				Pages:          12,
				Characters:     48211,
				Chunks:         61,
				EmbeddingModel: "all-minilm",
				Fingerprint:    core.ID(987654321),
				IngestedAt:     now,
			},
		},
		{
			name: "unicode name",
			doc: &core.Document{
				Id:             core.ID(7),
				Name:           "résumé 履歴書.pdf",
				Chunks:         1,
				EmbeddingModel: "text-embedding-3-small",
				IngestedAt:     now.Add(-time.Hour),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocument(tt.doc)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalDocument(data)
			require.NoError(t, err)
			assert.Equal(t, tt.doc.Id, decoded.Id)
			assert.Equal(t, tt.doc.Name, decoded.Name)
			assert.Equal(t, tt.doc.Path, decoded.Path)
			assert.Equal(t, tt.doc.Pages, decoded.Pages)
			assert.Equal(t, tt.doc.Characters, decoded.Characters)
			assert.Equal(t, tt.doc.Chunks, decoded.Chunks)
			assert.Equal(t, tt.doc.EmbeddingModel, decoded.EmbeddingModel)
			assert.Equal(t, tt.doc.Fingerprint, decoded.Fingerprint)
			assert.True(t, tt.doc.IngestedAt.Equal(decoded.IngestedAt))
		})
	}
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	valid := MarshalDocument(&core.Document{
		Id:             core.ID(1),
		Name:           "a.pdf",
		Chunks:         1,
		EmbeddingModel: "all-minilm",
		IngestedAt:     time.Now().UTC(),
	})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", valid[:len(valid)/2]},
		{"trailing bytes", append(append([]byte{}, valid...), 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDocument(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
