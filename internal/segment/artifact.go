package segment

import (
	"fmt"
	"strings"
)

// Artifact identifies one index file kind of a column.
type Artifact uint8

const (
	ArtifactUnknown Artifact = iota
	// ArtifactDictionary is the sorted unique value dictionary.
	ArtifactDictionary
	// ArtifactForwardSV is the dictionary-encoded single-value forward index.
	ArtifactForwardSV
	// ArtifactForwardMV is the dictionary-encoded multi-value forward index.
	ArtifactForwardMV
	// ArtifactRawForwardSV is the raw (no dictionary) single-value forward index.
	ArtifactRawForwardSV
	// ArtifactRawForwardMV is the raw (no dictionary) multi-value forward index.
	ArtifactRawForwardMV
	// ArtifactNullVector marks null rows.
	ArtifactNullVector
)

// Artifacts lists every known artifact kind in removal order.
var Artifacts = []Artifact{
	ArtifactDictionary,
	ArtifactForwardSV,
	ArtifactForwardMV,
	ArtifactRawForwardSV,
	ArtifactRawForwardMV,
	ArtifactNullVector,
}

var artifactNames = [...]string{
	ArtifactUnknown:      "unknown",
	ArtifactDictionary:   "dictionary",
	ArtifactForwardSV:    "forward_sv",
	ArtifactForwardMV:    "forward_mv",
	ArtifactRawForwardSV: "raw_forward_sv",
	ArtifactRawForwardMV: "raw_forward_mv",
	ArtifactNullVector:   "null_vector",
}

var artifactSuffixes = [...]string{
	ArtifactDictionary:   ".dict",
	ArtifactForwardSV:    ".sv.unsorted.fwd",
	ArtifactForwardMV:    ".mv.fwd",
	ArtifactRawForwardSV: ".sv.raw.fwd",
	ArtifactRawForwardMV: ".mv.raw.fwd",
	ArtifactNullVector:   ".bitmap.nullvalue",
}

// Valid reports whether a is a known artifact kind.
func (a Artifact) Valid() bool {
	return a > ArtifactUnknown && a <= ArtifactNullVector
}

// String returns the artifact name used in index maps and logs.
func (a Artifact) String() string {
	if int(a) < len(artifactNames) {
		return artifactNames[a]
	}
	return fmt.Sprintf("artifact(%d)", uint8(a))
}

// Suffix returns the V1 file name suffix.
func (a Artifact) Suffix() string {
	if a.Valid() {
		return artifactSuffixes[a]
	}
	return ""
}

// ParseArtifact parses an artifact name.
func ParseArtifact(s string) (Artifact, error) {
	for i, name := range artifactNames {
		if i > 0 && strings.EqualFold(name, s) {
			return Artifact(i), nil
		}
	}
	return ArtifactUnknown, fmt.Errorf("unknown artifact %q", s)
}

func (a Artifact) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid artifact %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Artifact) UnmarshalText(b []byte) error {
	v, err := ParseArtifact(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// BlobName returns the V1 blob name of a column artifact.
func BlobName(column string, a Artifact) string {
	return column + a.Suffix()
}

// FormatVersion selects the on-disk layout of a segment's column indices.
type FormatVersion uint8

const (
	// V1 stores one blob per artifact.
	V1 FormatVersion = 1
	// V3 packs all artifacts into one container blob plus an index map.
	V3 FormatVersion = 3
)

// Valid reports whether v is a supported layout.
func (v FormatVersion) Valid() bool {
	return v == V1 || v == V3
}

func (v FormatVersion) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// Location is where an artifact's bytes live inside the segment store.
type Location struct {
	Artifact Artifact `json:"artifact"`
	Blob     string   `json:"blob"`
	Offset   int64    `json:"offset"`
	Size     int64    `json:"size"`
}
