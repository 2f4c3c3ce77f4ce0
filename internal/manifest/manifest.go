package manifest

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Encoding is how a column's forward index stores values.
type Encoding uint8

const (
	// EncodingDictionary stores dictionary ids.
	EncodingDictionary Encoding = iota + 1
	// EncodingRaw stores encoded values directly.
	EncodingRaw
)

func (e Encoding) String() string {
	switch e {
	case EncodingDictionary:
		return "DICTIONARY"
	case EncodingRaw:
		return "RAW"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

func (e Encoding) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Encoding) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "DICTIONARY":
		*e = EncodingDictionary
	case "RAW":
		*e = EncodingRaw
	default:
		return fmt.Errorf("unknown encoding %q", b)
	}
	return nil
}

// ColumnDescriptor is the committed metadata of one column.
type ColumnDescriptor struct {
	Name        string        `json:"name"`
	DataType    value.Type    `json:"data_type"`
	SingleValue bool          `json:"single_value"`
	Role        schema.Role   `json:"role"`
	Defaults    []value.Value `json:"defaults,omitempty"` // empty = null default
	Cardinality int           `json:"cardinality"`
	Encoding    Encoding      `json:"encoding"`
	TextIndex   bool          `json:"text_index"`
	TotalDocs   int           `json:"total_docs"`
	// HasDictionary is false for raw-encoded columns.
	HasDictionary bool `json:"has_dictionary"`
	Sorted        bool `json:"sorted"`
	// AutoGenerated marks columns synthesized from a schema default. Only
	// these are ever updated or removed by reconciliation.
	AutoGenerated  bool               `json:"auto_generated"`
	BitsPerElement int                `json:"bits_per_element"`
	MaxMultiValues int                `json:"max_multi_values"`
	TotalEntries   int                `json:"total_entries"`
	HasNullVector  bool               `json:"has_null_vector"`
	Artifacts      []segment.Location `json:"artifacts,omitempty"`
}

// DefaultIsNull reports whether the column was built from a null default.
func (d *ColumnDescriptor) DefaultIsNull() bool { return len(d.Defaults) == 0 }

// Artifact returns the location of artifact a, if recorded.
func (d *ColumnDescriptor) Artifact(a segment.Artifact) (segment.Location, bool) {
	for _, l := range d.Artifacts {
		if l.Artifact == a {
			return l, true
		}
	}
	return segment.Location{}, false
}

// Clone returns a deep copy of d.
func (d ColumnDescriptor) Clone() ColumnDescriptor {
	d.Defaults = slices.Clone(d.Defaults)
	d.Artifacts = slices.Clone(d.Artifacts)
	return d
}

// Manifest describes a segment at a specific point in time.
type Manifest struct {
	Version       int                   `json:"version"`
	ID            uint64                `json:"id"`
	CreatedAt     time.Time             `json:"created_at"`
	SegmentName   string                `json:"segment_name"`
	TotalDocs     int                   `json:"total_docs"`
	FormatVersion segment.FormatVersion `json:"format_version"`
	Columns       []ColumnDescriptor    `json:"columns"`
}

// New creates an empty segment manifest.
func New(segmentName string, totalDocs int, version segment.FormatVersion) *Manifest {
	return &Manifest{
		Version:       CurrentVersion,
		CreatedAt:     time.Now(),
		SegmentName:   segmentName,
		TotalDocs:     totalDocs,
		FormatVersion: version,
	}
}

// Validate checks segment-level invariants.
func (m *Manifest) Validate() error {
	if m.TotalDocs < 0 {
		return fmt.Errorf("manifest: negative total docs %d", m.TotalDocs)
	}
	if !m.FormatVersion.Valid() {
		return fmt.Errorf("manifest: unsupported format version %d", uint8(m.FormatVersion))
	}
	seen := make(map[string]struct{}, len(m.Columns))
	for _, c := range m.Columns {
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("manifest: duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Column returns a copy of the named descriptor.
func (m *Manifest) Column(name string) (ColumnDescriptor, bool) {
	i, ok := m.find(name)
	if !ok {
		return ColumnDescriptor{}, false
	}
	return m.Columns[i].Clone(), true
}

// ColumnNames returns the sorted column names.
func (m *Manifest) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Blobs returns the sorted distinct blob names the descriptors reference.
func (m *Manifest) Blobs() []string {
	var blobs []string
	for _, c := range m.Columns {
		for _, l := range c.Artifacts {
			if l.Blob != "" {
				blobs = append(blobs, l.Blob)
			}
		}
	}
	slices.Sort(blobs)
	return slices.Compact(blobs)
}

// SetColumn inserts or replaces a descriptor, keeping columns sorted.
func (m *Manifest) SetColumn(d ColumnDescriptor) {
	d = d.Clone()
	i, ok := m.find(d.Name)
	if ok {
		m.Columns[i] = d
		return
	}
	m.Columns = slices.Insert(m.Columns, i, d)
}

// RemoveColumn drops the named descriptor and reports whether it existed.
func (m *Manifest) RemoveColumn(name string) bool {
	i, ok := m.find(name)
	if !ok {
		return false
	}
	m.Columns = slices.Delete(m.Columns, i, i+1)
	return true
}

func (m *Manifest) find(name string) (int, bool) {
	i := sort.Search(len(m.Columns), func(i int) bool { return m.Columns[i].Name >= name })
	return i, i < len(m.Columns) && m.Columns[i].Name == name
}

// Clone returns a deep copy of m.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Columns = make([]ColumnDescriptor, len(m.Columns))
	for i, d := range m.Columns {
		c.Columns[i] = d.Clone()
	}
	return &c
}
