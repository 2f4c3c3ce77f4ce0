package reconcile

import (
	"context"
	"errors"
	"slices"

	"github.com/hupe1980/segmend/internal/dictionary"
	"github.com/hupe1980/segmend/internal/forward"
	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/internal/nullvec"
	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

// artifactData is one encoded artifact ready to be written.
type artifactData struct {
	kind segment.Artifact
	data []byte
}

// columnBuild is the output of a builder: artifacts plus the descriptor that
// will reference them once committed.
type columnBuild struct {
	desc      manifest.ColumnDescriptor
	artifacts []artifactData
}

// builder synthesizes the artifacts of a default column with numDocs rows.
type builder struct {
	numDocs int
	cfg     schema.IndexingConfig
}

// build encodes d's default into a dictionary and fixed-bit forward index,
// or into a raw forward index for text-indexed columns.
func (b builder) build(d Decision) (*columnBuild, error) {
	f := d.Field
	if err := f.DataType.Check(); err != nil {
		return nil, &UnsupportedTypeError{Column: d.Column, Type: f.DataType}
	}
	values, err := f.ResolvedDefaults()
	if err != nil {
		if errors.Is(err, value.ErrUnsupportedType) {
			return nil, &UnsupportedTypeError{Column: d.Column, Type: f.DataType}
		}
		return nil, err
	}

	cb := &columnBuild{desc: manifest.ColumnDescriptor{
		Name:          d.Column,
		DataType:      f.DataType,
		SingleValue:   f.SingleValue,
		Role:          f.Role,
		Defaults:      f.Defaults,
		TextIndex:     d.TextIndex,
		TotalDocs:     b.numDocs,
		Sorted:        false,
		AutoGenerated: true,
	}}
	if f.SingleValue {
		cb.desc.TotalEntries = b.numDocs
	} else {
		cb.desc.MaxMultiValues = len(values)
		cb.desc.TotalEntries = b.numDocs * len(values)
	}

	if d.TextIndex {
		err = b.buildRaw(cb, f, values)
	} else {
		err = b.buildDictionary(cb, f, values)
	}
	if err != nil {
		return nil, err
	}

	if b.cfg.NullHandlingEnabled && f.NullDefault() {
		data, err := nullvec.Build(b.numDocs)
		if err != nil {
			return nil, err
		}
		cb.artifacts = append(cb.artifacts, artifactData{segment.ArtifactNullVector, data})
		cb.desc.HasNullVector = true
	}
	return cb, nil
}

func (b builder) buildDictionary(cb *columnBuild, f schema.FieldSpec, values []value.Value) error {
	dict, err := dictionary.New(f.DataType, values)
	if err != nil {
		return err
	}
	dictData, err := dict.MarshalBinary()
	if err != nil {
		return err
	}
	ids, err := dict.IDs(values)
	if err != nil {
		return err
	}

	var (
		fwd  []byte
		kind segment.Artifact
	)
	if f.SingleValue {
		kind = segment.ArtifactForwardSV
		fwd, err = forward.BuildFixedBitSV(b.numDocs, dict.Len(), ids[0])
	} else {
		kind = segment.ArtifactForwardMV
		fwd, err = forward.BuildFixedBitMV(b.numDocs, dict.Len(), ids)
	}
	if err != nil {
		return err
	}

	cb.artifacts = append(cb.artifacts,
		artifactData{segment.ArtifactDictionary, dictData},
		artifactData{kind, fwd},
	)
	cb.desc.Encoding = manifest.EncodingDictionary
	cb.desc.HasDictionary = true
	cb.desc.Cardinality = dict.Len()
	cb.desc.BitsPerElement = forward.BitWidth(dict.Len())
	return nil
}

func (b builder) buildRaw(cb *columnBuild, f schema.FieldSpec, values []value.Value) error {
	compression, err := forward.ParseCompression(string(b.cfg.RawCompression))
	if err != nil {
		return err
	}
	opts := forward.RawOptions{Compression: compression, DocsPerChunk: b.cfg.DocsPerChunk}

	var (
		fwd  []byte
		kind segment.Artifact
	)
	if f.SingleValue {
		kind = segment.ArtifactRawForwardSV
		fwd, err = forward.BuildRawSV(b.numDocs, values[0], opts)
	} else {
		kind = segment.ArtifactRawForwardMV
		fwd, err = forward.BuildRawMV(b.numDocs, f.DataType, values, opts)
	}
	if err != nil {
		return err
	}

	sorted := slices.SortedStableFunc(slices.Values(values), value.Compare)
	distinct := slices.CompactFunc(sorted, func(a, b value.Value) bool { return value.Compare(a, b) == 0 })
	cb.artifacts = append(cb.artifacts, artifactData{kind, fwd})
	cb.desc.Encoding = manifest.EncodingRaw
	cb.desc.HasDictionary = false
	cb.desc.Cardinality = len(distinct)
	return nil
}

// write stores the artifacts of cb.
func write(ctx context.Context, dir segment.Directory, cb *columnBuild) error {
	for _, a := range cb.artifacts {
		if err := dir.Write(ctx, cb.desc.Name, a.kind, a.data); err != nil {
			return err
		}
	}
	return nil
}

func (cb *columnBuild) kinds() []segment.Artifact {
	out := make([]segment.Artifact, len(cb.artifacts))
	for i, a := range cb.artifacts {
		out[i] = a.kind
	}
	return out
}
