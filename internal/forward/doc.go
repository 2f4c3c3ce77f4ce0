// Package forward builds and reads forward indexes: the per-row values of a
// column in document order.
//
// Dictionary-encoded indexes store dictionary ids with the minimal bit
// width for the dictionary cardinality, packed LSB-first into
// little-endian 64-bit words:
//
//	SV body: NumDocs u32 | BitWidth u8 | pad 3 | packed ids
//	MV body: NumDocs u32 | TotalValues u32 | BitWidth u8 | pad 3 |
//	         NumDocs * u32 value counts | packed ids
//
// Raw indexes store encoded values directly in chunks of DocsPerChunk rows.
// Each chunk is a block with an 8-byte header {uncompressed u32,
// compressed u32} where a compressed size of 0 marks a stored block. A chunk
// holds fixed-width values back to back, or (n+1) u32 offsets followed by the
// value bytes. Multi-value rows are a u32 count plus u32-length-prefixed
// elements.
//
// Every index is wrapped in a checksummed segment artifact header.
package forward
