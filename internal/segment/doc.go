// Package segment stores the per-column index artifacts of an immutable
// segment.
//
// A Directory hides the on-disk layout behind Write, Delete and Flush:
//
//   - V1: one blob per artifact, named after the column and artifact kind.
//   - V3: every artifact packed into one container generation plus an
//     index_map blob locating each artifact.
//
// Sync tells a Directory that the segment metadata now references its
// flushed state; Restore goes back to that state after a failed metadata
// write. V3 keeps the synced container generation until the next Sync.
//
// Artifacts are wrapped in a checksummed header (see EncodeArtifact).
// Readers hold registered Handles, which are invalidated when their
// artifact is deleted or its container is rewritten.
package segment
