// Package fs abstracts the local filesystem underneath segment storage.
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: open, remove, rename, stat and directory operations
//
// [LocalFS] is the production implementation. [FaultyFS] wraps another
// FileSystem and injects write, sync, close, rename and remove failures per
// file-name pattern, which is how partial reconciliation failures are
// reproduced in tests:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".sv.unsorted.fwd", fs.Fault{FailAfterBytes: 64})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Operations take no context.Context: local syscalls are not interruptible.
// Remote backends live in the blobstore package, which is context-aware.
package fs
