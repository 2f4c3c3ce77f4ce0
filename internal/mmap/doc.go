// Package mmap provides read-only memory mappings for segment artifacts.
//
// Dictionaries and forward indexes are read back through mappings so that a
// segment can be verified without copying its files onto the heap. A mapping
// that backs an artifact about to be deleted must be closed first; after
// Close every accessor reports the mapping as gone instead of touching
// unmapped memory:
//
//	m, err := mmap.Open("region.dict")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()              // nil after Close
//	r, _ := m.Region(off, size)    // view into one packed artifact
//
// # Platform Support
//
//   - Unix: mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (Advise is a no-op)
//
// # Thread Safety
//
// Close is idempotent and guarded by an atomic flag. Callers must not retain
// slices returned by Bytes past Close.
package mmap
