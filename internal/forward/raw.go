package forward

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/value"
)

// DefaultDocsPerChunk is used when RawOptions leaves DocsPerChunk unset.
const DefaultDocsPerChunk = 1000

// NumDocs u32 | Type u8 | Compression u8 | MultiValue u8 | pad u8 |
// DocsPerChunk u32 | NumChunks u32
const rawHeaderSize = 16

// RawOptions configures a raw forward index.
type RawOptions struct {
	Compression  Compression
	DocsPerChunk int
}

func (o RawOptions) docsPerChunk() int {
	if o.DocsPerChunk <= 0 {
		return DefaultDocsPerChunk
	}
	return o.DocsPerChunk
}

// BuildRawSV returns a raw single-value forward index of numDocs rows that
// all hold v.
func BuildRawSV(numDocs int, v value.Value, opts RawOptions) ([]byte, error) {
	enc, err := value.Encode(v)
	if err != nil {
		return nil, err
	}
	_, fixed := v.Type().FixedWidth()
	chunk := func(n int) []byte {
		if fixed {
			buf := make([]byte, 0, n*len(enc))
			for i := 0; i < n; i++ {
				buf = append(buf, enc...)
			}
			return buf
		}
		return varChunk(n, enc)
	}
	return buildRaw(segment.ArtifactRawForwardSV, v.Type(), numDocs, opts, chunk)
}

// BuildRawMV returns a raw multi-value forward index of numDocs rows that
// all hold the list vs. A row is encoded as a value count followed by
// length-prefixed elements.
func BuildRawMV(numDocs int, t value.Type, vs []value.Value, opts RawOptions) ([]byte, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	row := binary.LittleEndian.AppendUint32(nil, uint32(len(vs)))
	for _, v := range vs {
		if v.Type() != t {
			return nil, fmt.Errorf("forward: value of type %s in %s column", v.Type(), t)
		}
		enc, err := value.Encode(v)
		if err != nil {
			return nil, err
		}
		row = binary.LittleEndian.AppendUint32(row, uint32(len(enc)))
		row = append(row, enc...)
	}
	return buildRaw(segment.ArtifactRawForwardMV, t, numDocs, opts, func(n int) []byte {
		return varChunk(n, row)
	})
}

// varChunk lays out n copies of row as (n+1) offsets plus the row bytes.
func varChunk(n int, row []byte) []byte {
	buf := make([]byte, 0, (n+1)*4+n*len(row))
	for i := 0; i <= n; i++ {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(i*len(row)))
	}
	for i := 0; i < n; i++ {
		buf = append(buf, row...)
	}
	return buf
}

func buildRaw(kind segment.Artifact, t value.Type, numDocs int, opts RawOptions, chunk func(n int) []byte) ([]byte, error) {
	if numDocs < 0 {
		return nil, fmt.Errorf("forward: negative doc count %d", numDocs)
	}
	per := opts.docsPerChunk()
	numChunks := (numDocs + per - 1) / per

	// Rows are identical, so every full chunk compresses to the same bytes.
	compressed := make(map[int][]byte, 2)
	blocks := make([][]byte, numChunks)
	for i := range blocks {
		n := min(per, numDocs-i*per)
		b, ok := compressed[n]
		if !ok {
			var err error
			if b, err = compressBlock(chunk(n), opts.Compression); err != nil {
				return nil, err
			}
			compressed[n] = b
		}
		blocks[i] = b
	}

	mv := byte(0)
	if kind == segment.ArtifactRawForwardMV {
		mv = 1
	}
	body := make([]byte, rawHeaderSize, rawHeaderSize+(numChunks+1)*8)
	binary.LittleEndian.PutUint32(body[0:], uint32(numDocs))
	body[4] = byte(t)
	body[5] = byte(opts.Compression)
	body[6] = mv
	binary.LittleEndian.PutUint32(body[8:], uint32(per))
	binary.LittleEndian.PutUint32(body[12:], uint32(numChunks))

	var off uint64
	for _, b := range blocks {
		body = binary.LittleEndian.AppendUint64(body, off)
		off += uint64(len(b))
	}
	body = binary.LittleEndian.AppendUint64(body, off)
	for _, b := range blocks {
		body = append(body, b...)
	}
	return segment.EncodeArtifact(kind, body), nil
}

// Raw reads a raw single- or multi-value forward index.
type Raw struct {
	numDocs      int
	typ          value.Type
	compression  Compression
	multiValue   bool
	docsPerChunk int
	offsets      []uint64
	chunks       []byte
}

// ReadRaw decodes and verifies a raw forward index artifact of kind
// ArtifactRawForwardSV or ArtifactRawForwardMV.
func ReadRaw(kind segment.Artifact, data []byte) (*Raw, error) {
	if kind != segment.ArtifactRawForwardSV && kind != segment.ArtifactRawForwardMV {
		return nil, fmt.Errorf("forward: %s is not a raw forward index", kind)
	}
	body, err := segment.DecodeArtifact(kind, data)
	if err != nil {
		return nil, err
	}
	if len(body) < rawHeaderSize {
		return nil, segment.ErrTruncated
	}

	r := &Raw{
		numDocs:      int(binary.LittleEndian.Uint32(body[0:])),
		typ:          value.Type(body[4]),
		compression:  Compression(body[5]),
		multiValue:   body[6] == 1,
		docsPerChunk: int(binary.LittleEndian.Uint32(body[8:])),
	}
	if err := r.typ.Check(); err != nil {
		return nil, err
	}
	if r.multiValue != (kind == segment.ArtifactRawForwardMV) {
		return nil, errors.New("forward: value arity does not match artifact kind")
	}
	numChunks := int(binary.LittleEndian.Uint32(body[12:]))
	if r.docsPerChunk <= 0 || numChunks != (r.numDocs+r.docsPerChunk-1)/r.docsPerChunk {
		return nil, fmt.Errorf("forward: %d chunks for %d docs", numChunks, r.numDocs)
	}
	body = body[rawHeaderSize:]
	if len(body) < (numChunks+1)*8 {
		return nil, segment.ErrTruncated
	}
	r.offsets = make([]uint64, numChunks+1)
	for i := range r.offsets {
		r.offsets[i] = binary.LittleEndian.Uint64(body[i*8:])
	}
	r.chunks = body[(numChunks+1)*8:]
	if r.offsets[numChunks] != uint64(len(r.chunks)) {
		return nil, segment.ErrTruncated
	}
	return r, nil
}

// NumDocs returns the row count.
func (r *Raw) NumDocs() int { return r.numDocs }

// Type returns the declared value type.
func (r *Raw) Type() value.Type { return r.typ }

// Compression returns the chunk codec.
func (r *Raw) Compression() Compression { return r.compression }

// MultiValue reports whether rows hold value lists.
func (r *Raw) MultiValue() bool { return r.multiValue }

func (r *Raw) row(doc int) ([]byte, error) {
	if doc < 0 || doc >= r.numDocs {
		return nil, ErrOutOfRange
	}
	c := doc / r.docsPerChunk
	start, end := r.offsets[c], r.offsets[c+1]
	if start > end || end > uint64(len(r.chunks)) {
		return nil, fmt.Errorf("forward: chunk %d bounds invalid", c)
	}
	chunk, err := decompressBlock(r.chunks[start:end], r.compression)
	if err != nil {
		return nil, fmt.Errorf("forward: chunk %d: %w", c, err)
	}
	i := doc % r.docsPerChunk

	if w, fixed := r.typ.FixedWidth(); fixed && !r.multiValue {
		if (i+1)*w > len(chunk) {
			return nil, segment.ErrTruncated
		}
		return chunk[i*w : (i+1)*w], nil
	}
	n := min(r.docsPerChunk, r.numDocs-c*r.docsPerChunk)
	if (n+1)*4 > len(chunk) {
		return nil, segment.ErrTruncated
	}
	data := chunk[(n+1)*4:]
	lo := binary.LittleEndian.Uint32(chunk[i*4:])
	hi := binary.LittleEndian.Uint32(chunk[(i+1)*4:])
	if lo > hi || int(hi) > len(data) {
		return nil, fmt.Errorf("forward: row %d bounds invalid", doc)
	}
	return data[lo:hi], nil
}

// Get returns the value of a single-value row.
func (r *Raw) Get(doc int) (value.Value, error) {
	if r.multiValue {
		return value.Value{}, errors.New("forward: Get on a multi-value index")
	}
	b, err := r.row(doc)
	if err != nil {
		return value.Value{}, err
	}
	return value.Decode(r.typ, b)
}

// GetMV returns the values of a multi-value row.
func (r *Raw) GetMV(doc int) ([]value.Value, error) {
	if !r.multiValue {
		return nil, errors.New("forward: GetMV on a single-value index")
	}
	b, err := r.row(doc)
	if err != nil {
		return nil, err
	}
	if len(b) < 4 {
		return nil, segment.ErrTruncated
	}
	count := int(binary.LittleEndian.Uint32(b))
	b = b[4:]
	vs := make([]value.Value, 0, min(count, len(b)/4))
	for i := 0; i < count; i++ {
		if len(b) < 4 {
			return nil, segment.ErrTruncated
		}
		l := int(binary.LittleEndian.Uint32(b))
		b = b[4:]
		if l > len(b) {
			return nil, segment.ErrTruncated
		}
		v, err := value.Decode(r.typ, b[:l])
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
		b = b[l:]
	}
	return vs, nil
}
