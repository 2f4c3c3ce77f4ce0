// Package nullvec builds and reads null value vectors: the set of documents
// whose value is the column's null sentinel, stored as a portable Roaring
// bitmap inside a segment artifact.
package nullvec

import (
	"bytes"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segmend/internal/segment"
)

// Vector is a read-only null value vector.
type Vector struct {
	rb *roaring.Bitmap
}

// Build returns a null value vector artifact marking every document in
// [0, numDocs) as null.
func Build(numDocs int) ([]byte, error) {
	if numDocs < 0 {
		return nil, fmt.Errorf("nullvec: negative doc count %d", numDocs)
	}
	rb := roaring.New()
	rb.AddRange(0, uint64(numDocs))
	rb.RunOptimize()

	var buf bytes.Buffer
	if _, err := rb.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("nullvec: %w", err)
	}
	return segment.EncodeArtifact(segment.ArtifactNullVector, buf.Bytes()), nil
}

// Read decodes and verifies a null value vector artifact.
func Read(data []byte) (*Vector, error) {
	body, err := segment.DecodeArtifact(segment.ArtifactNullVector, data)
	if err != nil {
		return nil, err
	}
	rb := roaring.New()
	if _, err := rb.ReadFrom(bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("nullvec: %w", err)
	}
	return &Vector{rb: rb}, nil
}

// Contains reports whether doc is null.
func (v *Vector) Contains(doc uint32) bool {
	return v.rb.Contains(doc)
}

// Cardinality returns the number of null documents.
func (v *Vector) Cardinality() int {
	return int(v.rb.GetCardinality())
}
