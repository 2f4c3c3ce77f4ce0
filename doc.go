// Package segmend reconciles the default columns of immutable columnar
// segments with a changed schema, without re-ingesting source data.
//
// A segment is a fixed number of rows plus per-column index artifacts and a
// versioned manifest of column descriptors, all kept in a blobstore.BlobStore.
// When the schema gains a column, changes the definition of a column that was
// synthesized from a default, or drops such a column, a pass brings the
// segment in line:
//
//   - ADD writes a dictionary and a fixed-bit forward index holding the
//     default on every row, or a raw forward index for text-indexed columns.
//   - UPDATE removes the column and adds it again.
//   - REMOVE deletes the column's artifacts and descriptor.
//   - NO-OP leaves the column byte-for-byte unchanged.
//
// Real data columns are never rewritten.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./segments/events_0")
//
//	r, _ := segmend.Open(ctx, store, segmend.WithLogger(segmend.NewTextLogger(slog.LevelInfo)))
//	defer r.Close()
//
//	s, _ := schema.LoadJSON("events.schema.json")
//	cfg, _ := schema.LoadIndexingConfig("indexing.toml")
//
//	report, err := r.Reconcile(ctx, s, cfg)
//
// # On-Disk Layouts
//
// The segment's format version selects the artifact layout. V1 keeps one
// blob per artifact (region.dict, region.sv.unsorted.fwd, ...). V3 packs all
// artifacts into a single container generation addressed through an
// index_map blob.
//
// # Failure Model
//
// Columns fail independently with an *UnsupportedTypeError, *IOError or
// *InconsistentStateError. A failed build deletes the artifacts it wrote, so
// a descriptor never references a missing artifact and no artifact outlives
// a failed column. The first failure stops the pass unless
// WithContinueOnError is set.
package segmend
