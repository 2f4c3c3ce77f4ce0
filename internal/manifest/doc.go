// Package manifest implements atomic persistence of segment metadata.
//
// # Overview
//
// A manifest is a snapshot of one segment: its name, total document count,
// the on-disk format version of its column indices, and one descriptor per
// column. Column descriptors record the data type, defaults, encoding,
// cardinality and the location of every index artifact.
//
// # Binary Format
//
// Manifests are stored in a compact binary format with integrity checking:
//
//	Header (16 bytes):
//	  Magic    (4 bytes) - 0x53474D44 ("SGMD")
//	  Version  (4 bytes) - Format version (currently 1)
//	  Checksum (4 bytes) - CRC32-IEEE of payload
//	  Length   (4 bytes) - Payload length in bytes
//
//	Payload:
//	  ID            (8 bytes) - Manifest version ID
//	  CreatedAt     (8 bytes) - Unix nanoseconds
//	  SegmentName   (string)
//	  TotalDocs     (8 bytes)
//	  FormatVersion (1 byte)  - 1 (file per artifact) or 3 (packed)
//	  NumColumns    (4 bytes)
//	  Columns[]              - Column descriptors
//
// Strings are length-prefixed (2-byte length + bytes). Default values use
// the tagged encoding of package value.
//
// # Atomic Protocol
//
// Save follows a two-phase commit protocol:
//
//  1. Write manifest blob to MANIFEST-NNNNNN.bin (where N is the version ID)
//  2. Atomically update the CURRENT pointer to reference the new manifest
//
// Load reads CURRENT to find the active manifest, then loads that blob.
// MANIFEST-NNNNNN.json blobs are accepted on load.
//
// Prune deletes old generations; it is separate from Save so that a failed
// cleanup never turns a durable commit into an error.
//
// # Thread Safety
//
// All Store methods are protected by a mutex and safe for concurrent use.
package manifest
