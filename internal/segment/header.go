package segment

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/segmend/internal/hash"
)

const (
	// ArtifactMagic opens every artifact ("SGAF").
	ArtifactMagic = 0x53474146
	// ArtifactVersion is the current artifact header version.
	ArtifactVersion = 1
	// HeaderSize is the encoded header length.
	HeaderSize = 4 + 2 + 1 + 1 + 8 + 4 + 4
)

var (
	ErrInvalidMagic     = errors.New("segment: invalid artifact magic")
	ErrInvalidVersion   = errors.New("segment: unsupported artifact version")
	ErrChecksumMismatch = errors.New("segment: artifact checksum mismatch")
	ErrTruncated        = errors.New("segment: artifact truncated")
)

// Header prefixes every artifact.
//
// Layout (little endian): Magic u32 | Version u16 | Kind u8 | pad u8 |
// BodyLen u64 | Checksum u32 (CRC32C of the body) | reserved u32.
type Header struct {
	Magic    uint32
	Version  uint16
	Kind     Artifact
	BodyLen  uint64
	Checksum uint32
}

func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	buf[6] = byte(h.Kind)
	binary.LittleEndian.PutUint64(buf[8:], h.BodyLen)
	binary.LittleEndian.PutUint32(buf[16:], h.Checksum)
	return buf
}

func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, ErrTruncated
	}
	h := &Header{
		Magic:    binary.LittleEndian.Uint32(buf[0:]),
		Version:  binary.LittleEndian.Uint16(buf[4:]),
		Kind:     Artifact(buf[6]),
		BodyLen:  binary.LittleEndian.Uint64(buf[8:]),
		Checksum: binary.LittleEndian.Uint32(buf[16:]),
	}
	if h.Magic != ArtifactMagic {
		return nil, ErrInvalidMagic
	}
	if h.Version != ArtifactVersion {
		return nil, ErrInvalidVersion
	}
	return h, nil
}

// EncodeArtifact prefixes body with a checksummed header.
func EncodeArtifact(kind Artifact, body []byte) []byte {
	h := Header{
		Magic:    ArtifactMagic,
		Version:  ArtifactVersion,
		Kind:     kind,
		BodyLen:  uint64(len(body)),
		Checksum: hash.CRC32C(body),
	}
	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, h.Encode()...)
	return append(out, body...)
}

// DecodeArtifact verifies the header of data and returns its body.
// The body aliases data.
func DecodeArtifact(kind Artifact, data []byte) ([]byte, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Kind != kind {
		return nil, fmt.Errorf("segment: artifact kind %s, want %s", h.Kind, kind)
	}
	if uint64(len(data)-HeaderSize) < h.BodyLen {
		return nil, ErrTruncated
	}
	body := data[HeaderSize : HeaderSize+int(h.BodyLen)]
	if hash.CRC32C(body) != h.Checksum {
		return nil, ErrChecksumMismatch
	}
	return body, nil
}
