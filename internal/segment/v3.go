package segment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/segmend/blobstore"
	"github.com/hupe1980/segmend/codec"
)

const (
	// IndexMapName is the blob that maps column artifacts into the container.
	IndexMapName = "index_map"
	// ContainerPrefix starts every packed container name.
	ContainerPrefix = "columns-"

	indexMapVersion = 1
)

// ContainerName returns the name of container generation gen.
func ContainerName(gen uint64) string {
	return fmt.Sprintf("%s%06d.psf", ContainerPrefix, gen)
}

type indexMap struct {
	Version    int                   `json:"version"`
	Generation uint64                `json:"generation"`
	Container  string                `json:"container"`
	Codec      string                `json:"codec,omitempty"`
	Entries    map[string]indexEntry `json:"entries"`
}

type indexEntry struct {
	Offset int64 `json:"offset"`
	Size   int64 `json:"size"`
}

type entryKey struct {
	column   string
	artifact Artifact
}

func (k entryKey) String() string { return k.column + "/" + k.artifact.String() }

func parseEntryKey(s string) (entryKey, error) {
	col, name, ok := strings.Cut(s, "/")
	if !ok || col == "" {
		return entryKey{}, fmt.Errorf("segment: malformed index map key %q", s)
	}
	a, err := ParseArtifact(name)
	if err != nil {
		return entryKey{}, err
	}
	return entryKey{column: col, artifact: a}, nil
}

// v3Directory packs all artifacts of a segment into one container blob.
// Changes are staged per column and materialized by Flush, which writes a
// new container generation and switches the index map. Superseded
// generations stay until Sync; Restore switches back to the synced one.
type v3Directory struct {
	store   blobstore.BlobStore
	opts    options
	handles *registry

	mu         sync.Mutex
	generation uint64
	container  string
	entries    map[entryKey]indexEntry
	staged     map[entryKey][]byte
	removed    map[entryKey]struct{}

	// synced is the state the metadata store references.
	synced v3State
	// pinned containers survive garbage collection until the next Sync.
	pinned map[string]struct{}
}

type v3State struct {
	container string
	entries   map[entryKey]indexEntry
}

func openV3Directory(ctx context.Context, store blobstore.BlobStore, o options) (*v3Directory, error) {
	d := &v3Directory{
		store:   store,
		opts:    o,
		handles: newRegistry(),
		entries: make(map[entryKey]indexEntry),
		staged:  make(map[entryKey][]byte),
		removed: make(map[entryKey]struct{}),
		pinned:  make(map[string]struct{}, len(o.pinned)),
	}
	for _, n := range o.pinned {
		d.pinned[n] = struct{}{}
	}

	data, err := blobstore.Get(ctx, store, IndexMapName)
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		var m indexMap
		if err := o.codec.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("segment: decode index map: %w", err)
		}
		if m.Version != indexMapVersion {
			return nil, fmt.Errorf("segment: index map version %d: %w", m.Version, ErrInvalidVersion)
		}
		if _, ok := codec.ByName(m.Codec); m.Codec != "" && !ok {
			return nil, fmt.Errorf("segment: index map written by unknown codec %q", m.Codec)
		}
		for k, e := range m.Entries {
			key, err := parseEntryKey(k)
			if err != nil {
				return nil, err
			}
			d.entries[key] = e
		}
		d.generation = m.Generation
		d.container = m.Container
	}
	d.synced = v3State{container: d.container, entries: maps.Clone(d.entries)}

	if err := d.collectGarbage(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// collectGarbage deletes containers that neither the index map nor a
// pinned reference names, left behind by an interrupted Flush or commit.
func (d *v3Directory) collectGarbage(ctx context.Context) error {
	names, err := d.store.List(ctx, ContainerPrefix)
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, ok := d.pinned[n]; ok || n == d.container || n == d.synced.container {
			continue
		}
		if err := d.store.Delete(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (d *v3Directory) Version() FormatVersion { return V3 }

func (d *v3Directory) Write(_ context.Context, column string, a Artifact, data []byte) error {
	if err := d.handles.invalidate(column, a); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	k := entryKey{column, a}
	d.unstageLocked(k)
	if err := d.opts.rc.AcquireMemory(int64(len(data))); err != nil {
		return fmt.Errorf("segment: stage %s: %w", k, err)
	}
	d.staged[k] = slices.Clone(data)
	return nil
}

// unstageLocked drops a staged artifact and returns its memory reservation.
func (d *v3Directory) unstageLocked(k entryKey) {
	if data, ok := d.staged[k]; ok {
		d.opts.rc.ReleaseMemory(int64(len(data)))
		delete(d.staged, k)
	}
}

func (d *v3Directory) Has(_ context.Context, column string, a Artifact) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.hasLocked(entryKey{column, a}), nil
}

func (d *v3Directory) hasLocked(k entryKey) bool {
	if _, ok := d.staged[k]; ok {
		return true
	}
	if _, ok := d.removed[k]; ok {
		return false
	}
	_, ok := d.entries[k]
	return ok
}

func (d *v3Directory) Open(ctx context.Context, column string, a Artifact) (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := entryKey{column, a}
	if data, ok := d.staged[k]; ok {
		loc := Location{Artifact: a, Size: int64(len(data))}
		return newHandle(d.handles, column, loc, &stagedBlob{data: data}), nil
	}
	if !d.hasLocked(k) {
		return nil, blobstore.ErrNotFound
	}
	e := d.entries[k]
	b, err := d.store.Open(ctx, d.container)
	if err != nil {
		return nil, err
	}
	loc := Location{Artifact: a, Blob: d.container, Offset: e.Offset, Size: e.Size}
	return newHandle(d.handles, column, loc, b), nil
}

func (d *v3Directory) Delete(_ context.Context, column string, a Artifact) error {
	if err := d.handles.invalidate(column, a); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	k := entryKey{column, a}
	d.unstageLocked(k)
	if _, ok := d.entries[k]; ok {
		d.removed[k] = struct{}{}
	}
	return nil
}

func (d *v3Directory) pendingLocked(column string) bool {
	for k := range d.staged {
		if k.column == column {
			return true
		}
	}
	for k := range d.removed {
		if k.column == column {
			return true
		}
	}
	return false
}

// Flush rewrites the container with the column's pending changes applied.
// Pending changes of other columns stay staged. On failure the previous
// generation remains current. The superseded generation is kept until Sync.
func (d *v3Directory) Flush(ctx context.Context, column string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pendingLocked(column) {
		return nil
	}

	next := maps.Clone(d.entries)
	for k := range d.removed {
		if k.column == column {
			delete(next, k)
		}
	}
	fresh := make(map[entryKey][]byte)
	for k, data := range d.staged {
		if k.column == column {
			fresh[k] = data
			next[k] = indexEntry{}
		}
	}

	keys := slices.SortedFunc(maps.Keys(next), func(a, b entryKey) int {
		return strings.Compare(a.String(), b.String())
	})

	// Every handle over the current container goes before it is replaced.
	if err := d.handles.invalidateAll(); err != nil {
		return err
	}

	var old blobstore.Blob
	if d.container != "" && len(keys) > 0 {
		b, err := d.store.Open(ctx, d.container)
		if err != nil {
			return err
		}
		defer func() { _ = b.Close() }()
		old = b
	}

	chunks := make([][]byte, 0, len(keys))
	var off int64
	for _, k := range keys {
		data, ok := fresh[k]
		if !ok {
			e := d.entries[k]
			data = make([]byte, e.Size)
			if e.Size > 0 {
				if n, err := old.ReadAt(ctx, data, e.Offset); err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
					return fmt.Errorf("segment: read %s: %w", k, err)
				}
			}
		}
		next[k] = indexEntry{Offset: off, Size: int64(len(data))}
		chunks = append(chunks, data)
		off += int64(len(data))
	}

	gen := d.generation + 1
	container := ""
	if len(keys) > 0 {
		container = ContainerName(gen)
		if err := writeBlob(ctx, d.store, d.opts.rc, container, chunks...); err != nil {
			return err
		}
	}

	if err := d.putIndexMapLocked(ctx, gen, container, next); err != nil {
		if container != "" {
			_ = d.store.Delete(ctx, container)
		}
		return err
	}

	prev := d.container
	d.entries = next
	d.generation = gen
	d.container = container
	for k := range d.staged {
		if k.column == column {
			d.unstageLocked(k)
		}
	}
	for k := range d.removed {
		if k.column == column {
			delete(d.removed, k)
		}
	}

	// An unsynced intermediate generation has no reader left.
	if prev != "" && prev != container && prev != d.synced.container {
		if _, ok := d.pinned[prev]; !ok {
			_ = d.store.Delete(ctx, prev)
		}
	}
	return nil
}

func (d *v3Directory) putIndexMapLocked(ctx context.Context, gen uint64, container string, entries map[entryKey]indexEntry) error {
	m := indexMap{
		Version:    indexMapVersion,
		Generation: gen,
		Container:  container,
		Codec:      d.opts.codec.Name(),
		Entries:    make(map[string]indexEntry, len(entries)),
	}
	for k, e := range entries {
		m.Entries[k.String()] = e
	}
	data, err := d.opts.codec.Marshal(&m)
	if err != nil {
		return err
	}
	return d.store.Put(ctx, IndexMapName, data)
}

// Sync marks the current generation as referenced by the metadata store and
// deletes every other container.
func (d *v3Directory) Sync(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.synced = v3State{container: d.container, entries: maps.Clone(d.entries)}
	clear(d.pinned)
	return d.collectGarbage(ctx)
}

// Restore points the index map back at the synced generation and deletes
// the generations flushed since. Staged changes are kept.
func (d *v3Directory) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.container == d.synced.container {
		return nil
	}
	if err := d.handles.invalidateAll(); err != nil {
		return err
	}
	if err := d.putIndexMapLocked(ctx, d.generation, d.synced.container, d.synced.entries); err != nil {
		return fmt.Errorf("segment: restore index map: %w", err)
	}
	d.container = d.synced.container
	d.entries = maps.Clone(d.synced.entries)
	return d.collectGarbage(ctx)
}

func (d *v3Directory) Locations(_ context.Context, column string) ([]Location, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var locs []Location
	for _, a := range Artifacts {
		e, ok := d.entries[entryKey{column, a}]
		if !ok {
			continue
		}
		locs = append(locs, Location{Artifact: a, Blob: d.container, Offset: e.Offset, Size: e.Size})
	}
	return locs, nil
}

func (d *v3Directory) OpenHandles(column string) int { return d.handles.count(column) }

func (d *v3Directory) Close() error {
	d.mu.Lock()
	for k := range d.staged {
		d.unstageLocked(k)
	}
	clear(d.removed)
	d.mu.Unlock()

	return d.handles.invalidateAll()
}
