package manifest

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Version:       CurrentVersion,
		ID:            4,
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		SegmentName:   "events_0",
		TotalDocs:     1000,
		FormatVersion: segment.V1,
		Columns: []ColumnDescriptor{
			{
				Name:           "price",
				DataType:       value.TypeBigDecimal,
				SingleValue:    true,
				Role:           schema.RoleMetric,
				Defaults:       []value.Value{value.BigDecimal(decimal.RequireFromString("-1.28"))},
				Cardinality:    1,
				Encoding:       EncodingDictionary,
				TotalDocs:      1000,
				HasDictionary:  true,
				AutoGenerated:  true,
				BitsPerElement: 1,
				MaxMultiValues: 1,
				TotalEntries:   1000,
				Artifacts: []segment.Location{
					{Artifact: segment.ArtifactDictionary, Blob: "price.dict", Size: 31},
					{Artifact: segment.ArtifactForwardSV, Blob: "price.sv.unsorted.fwd", Size: 160},
				},
			},
			{
				Name:          "region",
				DataType:      value.TypeString,
				SingleValue:   true,
				Role:          schema.RoleDimension,
				Cardinality:   1,
				Encoding:      EncodingRaw,
				TextIndex:     true,
				TotalDocs:     1000,
				AutoGenerated: true,
				HasNullVector: true,
			},
			{
				Name:           "tags",
				DataType:       value.TypeInt,
				Role:           schema.RoleDimension,
				Defaults:       []value.Value{value.Int(3), value.Int(7)},
				Cardinality:    2,
				Encoding:       EncodingDictionary,
				TotalDocs:      1000,
				HasDictionary:  true,
				Sorted:         false,
				BitsPerElement: 1,
				MaxMultiValues: 2,
				TotalEntries:   2000,
			},
		},
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	m := sampleManifest()

	var buf bytes.Buffer
	err := m.WriteBinary(&buf)
	require.NoError(t, err)

	m2, err := ReadBinary(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.ID, m2.ID)
	assert.True(t, m.CreatedAt.Equal(m2.CreatedAt))
	assert.Equal(t, m.SegmentName, m2.SegmentName)
	assert.Equal(t, m.TotalDocs, m2.TotalDocs)
	assert.Equal(t, m.FormatVersion, m2.FormatVersion)
	require.Len(t, m2.Columns, len(m.Columns))

	for i := range m.Columns {
		want, got := m.Columns[i], m2.Columns[i]
		require.Len(t, got.Defaults, len(want.Defaults))
		for j := range want.Defaults {
			assert.True(t, want.Defaults[j].Equal(got.Defaults[j]), "column %s default %d", want.Name, j)
		}
		want.Defaults, got.Defaults = nil, nil
		assert.Equal(t, want, got)
	}
	assert.True(t, m2.Columns[1].DefaultIsNull())
}

func TestBinary_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, sampleManifest().WriteBinary(&a))
	require.NoError(t, sampleManifest().WriteBinary(&b))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestReadBinary_Errors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleManifest().WriteBinary(&buf))
	data := buf.Bytes()

	t.Run("checksum", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-1] ^= 0x01
		_, err := ReadBinary(bytes.NewReader(bad))
		assert.Error(t, err)
	})

	t.Run("magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		_, err := ReadBinary(bytes.NewReader(bad))
		assert.Error(t, err)
	})

	t.Run("version", func(t *testing.T) {
		bad := bytes.Clone(data)
		binary.LittleEndian.PutUint32(bad[4:8], 99)
		_, err := ReadBinary(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrIncompatibleVersion)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadBinary(bytes.NewReader(data[:len(data)-5]))
		assert.Error(t, err)
	})
}
