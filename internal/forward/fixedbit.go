package forward

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/segmend/internal/segment"
)

// ErrOutOfRange is returned for a document id outside [0, NumDocs).
var ErrOutOfRange = errors.New("forward: doc id out of range")

const (
	svHeaderSize = 8  // NumDocs u32 | BitWidth u8 | pad 3
	mvHeaderSize = 12 // NumDocs u32 | TotalValues u32 | BitWidth u8 | pad 3
)

func checkCardinality(cardinality int, ids ...uint32) (int, error) {
	if cardinality < 1 {
		return 0, fmt.Errorf("forward: cardinality %d", cardinality)
	}
	for _, id := range ids {
		if int64(id) >= int64(cardinality) {
			return 0, fmt.Errorf("forward: id %d exceeds cardinality %d", id, cardinality)
		}
	}
	return BitWidth(cardinality), nil
}

// BuildFixedBitSV returns a dictionary-encoded single-value forward index
// of numDocs rows that all hold id.
func BuildFixedBitSV(numDocs, cardinality int, id uint32) ([]byte, error) {
	width, err := checkCardinality(cardinality, id)
	if err != nil {
		return nil, err
	}
	if numDocs < 0 {
		return nil, fmt.Errorf("forward: negative doc count %d", numDocs)
	}

	p := newBitPacker(width, numDocs)
	for i := 0; i < numDocs; i++ {
		p.put(id)
	}

	body := make([]byte, svHeaderSize, svHeaderSize+packedLen(width, numDocs))
	binary.LittleEndian.PutUint32(body[0:], uint32(numDocs))
	body[4] = byte(width)
	body = p.appendTo(body)
	return segment.EncodeArtifact(segment.ArtifactForwardSV, body), nil
}

// BuildFixedBitMV returns a dictionary-encoded multi-value forward index of
// numDocs rows that all hold the id list ids.
func BuildFixedBitMV(numDocs, cardinality int, ids []uint32) ([]byte, error) {
	width, err := checkCardinality(cardinality, ids...)
	if err != nil {
		return nil, err
	}
	if numDocs < 0 {
		return nil, fmt.Errorf("forward: negative doc count %d", numDocs)
	}
	total := numDocs * len(ids)

	p := newBitPacker(width, total)
	for i := 0; i < numDocs; i++ {
		for _, id := range ids {
			p.put(id)
		}
	}

	body := make([]byte, mvHeaderSize, mvHeaderSize+numDocs*4+packedLen(width, total))
	binary.LittleEndian.PutUint32(body[0:], uint32(numDocs))
	binary.LittleEndian.PutUint32(body[4:], uint32(total))
	body[8] = byte(width)
	for i := 0; i < numDocs; i++ {
		body = binary.LittleEndian.AppendUint32(body, uint32(len(ids)))
	}
	body = p.appendTo(body)
	return segment.EncodeArtifact(segment.ArtifactForwardMV, body), nil
}

// FixedBitSV reads a dictionary-encoded single-value forward index.
type FixedBitSV struct {
	numDocs int
	width   int
	words   []byte
}

// ReadFixedBitSV decodes and verifies data. The reader aliases data.
func ReadFixedBitSV(data []byte) (*FixedBitSV, error) {
	body, err := segment.DecodeArtifact(segment.ArtifactForwardSV, data)
	if err != nil {
		return nil, err
	}
	if len(body) < svHeaderSize {
		return nil, segment.ErrTruncated
	}
	r := &FixedBitSV{
		numDocs: int(binary.LittleEndian.Uint32(body[0:])),
		width:   int(body[4]),
		words:   body[svHeaderSize:],
	}
	if r.width < 1 || r.width > 32 {
		return nil, fmt.Errorf("forward: invalid bit width %d", r.width)
	}
	if len(r.words) != packedLen(r.width, r.numDocs) {
		return nil, segment.ErrTruncated
	}
	return r, nil
}

// NumDocs returns the row count.
func (r *FixedBitSV) NumDocs() int { return r.numDocs }

// BitWidth returns the bits per id.
func (r *FixedBitSV) BitWidth() int { return r.width }

// Get returns the dictionary id of doc.
func (r *FixedBitSV) Get(doc int) (uint32, error) {
	if doc < 0 || doc >= r.numDocs {
		return 0, ErrOutOfRange
	}
	return unpack(r.words, r.width, doc), nil
}

// FixedBitMV reads a dictionary-encoded multi-value forward index.
type FixedBitMV struct {
	numDocs   int
	total     int
	width     int
	maxValues int
	starts    []int // len numDocs+1
	words     []byte
}

// ReadFixedBitMV decodes and verifies data. The reader aliases data.
func ReadFixedBitMV(data []byte) (*FixedBitMV, error) {
	body, err := segment.DecodeArtifact(segment.ArtifactForwardMV, data)
	if err != nil {
		return nil, err
	}
	if len(body) < mvHeaderSize {
		return nil, segment.ErrTruncated
	}
	r := &FixedBitMV{
		numDocs: int(binary.LittleEndian.Uint32(body[0:])),
		total:   int(binary.LittleEndian.Uint32(body[4:])),
		width:   int(body[8]),
	}
	if r.width < 1 || r.width > 32 {
		return nil, fmt.Errorf("forward: invalid bit width %d", r.width)
	}
	body = body[mvHeaderSize:]
	if len(body) < r.numDocs*4 {
		return nil, segment.ErrTruncated
	}

	r.starts = make([]int, r.numDocs+1)
	for i := 0; i < r.numDocs; i++ {
		n := int(binary.LittleEndian.Uint32(body[i*4:]))
		r.starts[i+1] = r.starts[i] + n
		r.maxValues = max(r.maxValues, n)
	}
	if r.starts[r.numDocs] != r.total {
		return nil, fmt.Errorf("forward: value counts sum to %d, header says %d", r.starts[r.numDocs], r.total)
	}
	r.words = body[r.numDocs*4:]
	if len(r.words) != packedLen(r.width, r.total) {
		return nil, segment.ErrTruncated
	}
	return r, nil
}

// NumDocs returns the row count.
func (r *FixedBitMV) NumDocs() int { return r.numDocs }

// BitWidth returns the bits per id.
func (r *FixedBitMV) BitWidth() int { return r.width }

// TotalValues returns the number of ids across all rows.
func (r *FixedBitMV) TotalValues() int { return r.total }

// MaxValues returns the largest row length.
func (r *FixedBitMV) MaxValues() int { return r.maxValues }

// Get returns the dictionary ids of doc.
func (r *FixedBitMV) Get(doc int) ([]uint32, error) {
	if doc < 0 || doc >= r.numDocs {
		return nil, ErrOutOfRange
	}
	start, end := r.starts[doc], r.starts[doc+1]
	ids := make([]uint32, 0, end-start)
	for i := start; i < end; i++ {
		ids = append(ids, unpack(r.words, r.width, i))
	}
	return ids, nil
}
