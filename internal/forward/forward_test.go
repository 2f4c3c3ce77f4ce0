package forward

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/value"
)

func TestBitWidth(t *testing.T) {
	tests := []struct{ card, want int }{
		{0, 1}, {1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {255, 8}, {256, 8}, {257, 9}, {1 << 20, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BitWidth(tt.card), "cardinality %d", tt.card)
	}
}

func TestBitPacking_CrossesWordBoundaries(t *testing.T) {
	for _, width := range []int{1, 3, 7, 13, 31, 32} {
		t.Run(fmt.Sprintf("width-%d", width), func(t *testing.T) {
			const n = 200
			mask := uint64(1)<<uint(width) - 1
			p := newBitPacker(width, n)
			want := make([]uint32, n)
			for i := range want {
				want[i] = uint32((uint64(i)*2654435761 + 17) & mask)
				p.put(want[i])
			}
			words := p.appendTo(nil)
			require.Len(t, words, packedLen(width, n))
			for i, w := range want {
				require.Equal(t, w, unpack(words, width, i), "index %d", i)
			}
		})
	}
}

func TestFixedBitSV(t *testing.T) {
	data, err := BuildFixedBitSV(1000, 1, 0)
	require.NoError(t, err)

	r, err := ReadFixedBitSV(data)
	require.NoError(t, err)
	assert.Equal(t, 1000, r.NumDocs())
	assert.Equal(t, 1, r.BitWidth())
	// 1000 one-bit ids fit into 16 words.
	assert.Len(t, data, segment.HeaderSize+svHeaderSize+16*8)

	for _, doc := range []int{0, 1, 63, 64, 999} {
		id, err := r.Get(doc)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), id)
	}
	_, err = r.Get(1000)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.Get(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFixedBitSV_NonZeroID(t *testing.T) {
	data, err := BuildFixedBitSV(100, 5, 4)
	require.NoError(t, err)
	r, err := ReadFixedBitSV(data)
	require.NoError(t, err)
	assert.Equal(t, 3, r.BitWidth())
	for doc := 0; doc < 100; doc++ {
		id, err := r.Get(doc)
		require.NoError(t, err)
		require.Equal(t, uint32(4), id)
	}
}

func TestFixedBitSV_Errors(t *testing.T) {
	_, err := BuildFixedBitSV(10, 1, 1)
	assert.Error(t, err)
	_, err = BuildFixedBitSV(10, 0, 0)
	assert.Error(t, err)
	_, err = BuildFixedBitSV(-1, 1, 0)
	assert.Error(t, err)

	mv, err := BuildFixedBitMV(10, 1, []uint32{0})
	require.NoError(t, err)
	_, err = ReadFixedBitSV(mv)
	assert.Error(t, err)
}

func TestFixedBitSV_Empty(t *testing.T) {
	data, err := BuildFixedBitSV(0, 1, 0)
	require.NoError(t, err)
	r, err := ReadFixedBitSV(data)
	require.NoError(t, err)
	assert.Equal(t, 0, r.NumDocs())
}

func TestFixedBitMV(t *testing.T) {
	data, err := BuildFixedBitMV(300, 3, []uint32{2, 0, 1})
	require.NoError(t, err)

	r, err := ReadFixedBitMV(data)
	require.NoError(t, err)
	assert.Equal(t, 300, r.NumDocs())
	assert.Equal(t, 900, r.TotalValues())
	assert.Equal(t, 3, r.MaxValues())
	assert.Equal(t, 2, r.BitWidth())

	for _, doc := range []int{0, 21, 150, 299} {
		ids, err := r.Get(doc)
		require.NoError(t, err)
		assert.Equal(t, []uint32{2, 0, 1}, ids)
	}
	_, err = r.Get(300)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = BuildFixedBitMV(10, 2, []uint32{0, 2})
	assert.Error(t, err)
}

func TestFixedBitMV_SingleElement(t *testing.T) {
	data, err := BuildFixedBitMV(5, 1, []uint32{0})
	require.NoError(t, err)
	r, err := ReadFixedBitMV(data)
	require.NoError(t, err)
	ids, err := r.Get(4)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, ids)
	assert.Equal(t, 1, r.MaxValues())
}

func rawValues() []value.Value {
	return []value.Value{
		value.Int(math.MinInt32),
		value.Long(-1),
		value.Float(1.5),
		value.Double(math.Inf(-1)),
		value.BigDecimal(decimal.RequireFromString("123.4500")),
		value.Bool(true),
		value.Timestamp(time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)),
		value.String("null"),
		value.String("a long default text body that repeats and compresses well"),
		value.JSON(`{"k":"v"}`),
		value.Bytes([]byte{1, 2, 3}),
		value.Bytes(nil),
	}
}

func TestRawSV_AllTypesAndCodecs(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for _, v := range rawValues() {
			t.Run(c.String()+"/"+v.Type().String()+"/"+v.String(), func(t *testing.T) {
				data, err := BuildRawSV(2500, v, RawOptions{Compression: c, DocsPerChunk: 1000})
				require.NoError(t, err)

				r, err := ReadRaw(segment.ArtifactRawForwardSV, data)
				require.NoError(t, err)
				assert.Equal(t, 2500, r.NumDocs())
				assert.Equal(t, v.Type(), r.Type())
				assert.Equal(t, c, r.Compression())
				assert.False(t, r.MultiValue())

				for _, doc := range []int{0, 999, 1000, 2001, 2499} {
					got, err := r.Get(doc)
					require.NoError(t, err)
					require.True(t, v.Equal(got), "doc %d: got %s want %s", doc, got, v)
				}
				_, err = r.Get(2500)
				assert.ErrorIs(t, err, ErrOutOfRange)
				_, err = r.GetMV(0)
				assert.Error(t, err)
			})
		}
	}
}

func TestRawSV_CompressionShrinks(t *testing.T) {
	v := value.String("unknown")
	plain, err := BuildRawSV(10000, v, RawOptions{Compression: CompressionNone})
	require.NoError(t, err)
	lz, err := BuildRawSV(10000, v, RawOptions{Compression: CompressionLZ4})
	require.NoError(t, err)
	zs, err := BuildRawSV(10000, v, RawOptions{Compression: CompressionZSTD})
	require.NoError(t, err)

	assert.Less(t, len(lz), len(plain))
	assert.Less(t, len(zs), len(plain))
}

func TestRawMV(t *testing.T) {
	vs := []value.Value{value.String("x"), value.String(""), value.String("yz")}
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data, err := BuildRawMV(1001, value.TypeString, vs, RawOptions{Compression: c, DocsPerChunk: 100})
			require.NoError(t, err)

			r, err := ReadRaw(segment.ArtifactRawForwardMV, data)
			require.NoError(t, err)
			assert.True(t, r.MultiValue())

			for _, doc := range []int{0, 99, 100, 1000} {
				got, err := r.GetMV(doc)
				require.NoError(t, err)
				require.Len(t, got, 3)
				for i := range vs {
					assert.True(t, vs[i].Equal(got[i]))
				}
			}
			_, err = r.Get(0)
			assert.Error(t, err)
		})
	}

	_, err := BuildRawMV(10, value.TypeInt, []value.Value{value.Long(1)}, RawOptions{})
	assert.Error(t, err)
	_, err = BuildRawMV(10, value.TypeMap, nil, RawOptions{})
	assert.ErrorIs(t, err, value.ErrUnsupportedType)
}

func TestRaw_ZeroDocs(t *testing.T) {
	data, err := BuildRawSV(0, value.Int(1), RawOptions{})
	require.NoError(t, err)
	r, err := ReadRaw(segment.ArtifactRawForwardSV, data)
	require.NoError(t, err)
	assert.Equal(t, 0, r.NumDocs())
}

func TestRaw_KindMismatch(t *testing.T) {
	data, err := BuildRawSV(10, value.Int(1), RawOptions{})
	require.NoError(t, err)
	_, err = ReadRaw(segment.ArtifactRawForwardMV, data)
	assert.Error(t, err)
	_, err = ReadRaw(segment.ArtifactForwardSV, data)
	assert.Error(t, err)
}

func TestRaw_UnsupportedType(t *testing.T) {
	_, err := BuildRawSV(10, value.Value{}, RawOptions{})
	assert.ErrorIs(t, err, value.ErrUnsupportedType)
}

func TestCompressBlock(t *testing.T) {
	compressible := bytes.Repeat([]byte("default-value "), 500)
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for name, data := range map[string][]byte{"compressible": compressible, "random": random, "empty": {}} {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				block, err := compressBlock(data, c)
				require.NoError(t, err)
				got, err := decompressBlock(block, c)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(got))
				assert.True(t, bytes.Equal(data, got))
			})
		}
	}

	// Incompressible data is stored with a zero compressed size.
	block, err := compressBlock(random, CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, blockHeaderSize+len(random), len(block))

	_, err = decompressBlock([]byte{1, 2, 3}, CompressionLZ4)
	assert.Error(t, err)
	_, err = compressBlock(compressible, Compression(9))
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	for s, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, "zstd": CompressionZSTD} {
		got, err := ParseCompression(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("snappy")
	assert.Error(t, err)
}
