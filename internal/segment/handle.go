package segment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/hupe1980/segmend/blobstore"
)

// ErrClosed is returned by a Handle after Close or after its artifact was
// removed or rewritten.
var ErrClosed = errors.New("segment: handle closed")

// Handle is a read handle over one artifact. Handles are registered with
// their directory, which invalidates them before the bytes underneath go
// away.
type Handle struct {
	mu     sync.RWMutex
	column string
	loc    Location
	blob   blobstore.Blob
	closed bool
	reg    *registry
}

func newHandle(reg *registry, column string, loc Location, blob blobstore.Blob) *Handle {
	h := &Handle{column: column, loc: loc, blob: blob, reg: reg}
	reg.add(h)
	return h
}

// Column returns the column the artifact belongs to.
func (h *Handle) Column() string { return h.column }

// Artifact returns the artifact kind.
func (h *Handle) Artifact() Artifact { return h.loc.Artifact }

// Location returns where the artifact was read from.
func (h *Handle) Location() Location { return h.loc }

// Size returns the artifact length in bytes.
func (h *Handle) Size() int64 { return h.loc.Size }

// Closed reports whether the handle is no longer usable.
func (h *Handle) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// ReadAt reads len(p) bytes at artifact offset off.
func (h *Handle) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0, ErrClosed
	}
	if off < 0 || off >= h.loc.Size {
		return 0, io.EOF
	}
	if rem := h.loc.Size - off; int64(len(p)) > rem {
		p = p[:rem]
		n, err := h.blob.ReadAt(ctx, p, h.loc.Offset+off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return h.blob.ReadAt(ctx, p, h.loc.Offset+off)
}

// Bytes returns a private copy of the artifact.
func (h *Handle) Bytes(ctx context.Context) ([]byte, error) {
	buf := make([]byte, h.loc.Size)
	if len(buf) == 0 {
		if h.Closed() {
			return nil, ErrClosed
		}
		return buf, nil
	}
	n, err := h.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, err
	}
	if n != len(buf) {
		return nil, ErrTruncated
	}
	return buf, nil
}

// Close releases the handle. Closing twice is a no-op.
func (h *Handle) Close() error {
	err := h.invalidate()
	h.reg.remove(h)
	return err
}

func (h *Handle) invalidate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.blob.Close()
}

// registry tracks open handles per column artifact.
type registry struct {
	mu      sync.Mutex
	handles map[string]map[*Handle]struct{}
}

func newRegistry() *registry {
	return &registry{handles: make(map[string]map[*Handle]struct{})}
}

func handleKey(column string, a Artifact) string {
	return column + "/" + a.String()
}

func (r *registry) add(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := handleKey(h.column, h.loc.Artifact)
	set := r.handles[key]
	if set == nil {
		set = make(map[*Handle]struct{})
		r.handles[key] = set
	}
	set[h] = struct{}{}
}

func (r *registry) remove(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := handleKey(h.column, h.loc.Artifact)
	if set := r.handles[key]; set != nil {
		delete(set, h)
		if len(set) == 0 {
			delete(r.handles, key)
		}
	}
}

// invalidate closes every handle over the column artifact.
func (r *registry) invalidate(column string, a Artifact) error {
	r.mu.Lock()
	set := r.handles[handleKey(column, a)]
	delete(r.handles, handleKey(column, a))
	r.mu.Unlock()

	var errs []error
	for h := range set {
		errs = append(errs, h.invalidate())
	}
	return errors.Join(errs...)
}

// invalidateAll closes every registered handle.
func (r *registry) invalidateAll() error {
	r.mu.Lock()
	all := r.handles
	r.handles = make(map[string]map[*Handle]struct{})
	r.mu.Unlock()

	var errs []error
	for _, set := range all {
		for h := range set {
			errs = append(errs, h.invalidate())
		}
	}
	return errors.Join(errs...)
}

func (r *registry) count(column string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, a := range Artifacts {
		n += len(r.handles[handleKey(column, a)])
	}
	return n
}

// stagedBlob serves reads of an artifact that is not flushed yet.
type stagedBlob struct {
	data []byte
}

func (b *stagedBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *stagedBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off > int64(len(b.data)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(b.data)))
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}

func (b *stagedBlob) Close() error { return nil }

func (b *stagedBlob) Size() int64 { return int64(len(b.data)) }
