package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/segmend/blobstore"
	"github.com/hupe1980/segmend/codec"
)

// Store manages the manifest blobs and atomic updates.
type Store struct {
	store blobstore.BlobStore
	codec codec.Codec
	now   func() time.Time
	mu    sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCodec sets the codec used for JSON manifests.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		s.codec = c
	}
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.BlobStore, opts ...Option) *Store {
	s := &Store{store: store, codec: codec.Default, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileName returns the blob name of manifest version id.
func FileName(id uint64) string {
	return fmt.Sprintf("%s-%06d.bin", ManifestFileName, id)
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means latest.
func (s *Store) LoadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := FileName(versionID)
	if versionID == 0 {
		current, err := s.currentLocked(ctx)
		if err != nil {
			return nil, err
		}
		name = current
	}

	m, err := s.read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	return m, nil
}

func (s *Store) currentLocked(ctx context.Context) (string, error) {
	content, err := blobstore.Get(ctx, s.store, CurrentFileName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func (s *Store) read(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.Get(ctx, s.store, name)
	if err != nil {
		return nil, err
	}

	var m *Manifest
	if path.Ext(name) == ".json" {
		m = &Manifest{}
		if err := s.codec.Unmarshal(data, m); err != nil {
			return nil, err
		}
		if m.Version != CurrentVersion {
			return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
		}
		sort.Slice(m.Columns, func(i, j int) bool { return m.Columns[i].Name < m.Columns[j].Name })
	} else {
		m, err = ReadBinary(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save atomically saves a new manifest generation and points CURRENT at it.
// It assigns m the next ID and a fresh CreatedAt.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.Validate(); err != nil {
		return err
	}

	m.Version = CurrentVersion
	m.ID++
	m.CreatedAt = s.now()

	filename := FileName(m.ID)

	var buf bytes.Buffer
	if err := m.WriteBinary(&buf); err != nil {
		return err
	}

	if err := s.store.Put(ctx, filename, buf.Bytes()); err != nil {
		return err
	}

	// Local stores rename atomically; S3 overwrites are strongly consistent;
	// the DynamoDB commit store applies a conditional write.
	return s.store.Put(ctx, CurrentFileName, []byte(filename))
}

// DeleteVersion deletes the manifest blob for the given version.
func (s *Store) DeleteVersion(ctx context.Context, versionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteVersionLocked(ctx, versionID)
}

func (s *Store) deleteVersionLocked(ctx context.Context, versionID uint64) error {
	return s.store.Delete(ctx, FileName(versionID))
}

// Prune deletes all binary manifest generations except the newest keep and
// the one CURRENT points at.
func (s *Store) Prune(ctx context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.currentLocked(ctx)
	if err != nil {
		return err
	}
	files, err := s.store.List(ctx, ManifestFileName+"-")
	if err != nil {
		return err
	}

	var ids []uint64
	for _, f := range files {
		if id, ok := parseFileName(f); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) <= keep {
		return nil
	}

	var errs []error
	for _, id := range ids[:len(ids)-keep] {
		if FileName(id) == current {
			continue
		}
		if err := s.deleteVersionLocked(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func parseFileName(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, ManifestFileName+"-")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".bin")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
