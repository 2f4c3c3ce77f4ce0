package manifest

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

const (
	binaryMagic   = 0x53474D44 // "SGMD"
	binaryVersion = 1
)

const (
	flagSingleValue uint8 = 1 << iota
	flagTextIndex
	flagHasDictionary
	flagSorted
	flagAutoGenerated
	flagHasNullVector
)

// WriteBinary writes the manifest in binary format.
// Format:
// Magic (4 bytes)
// Version (4 bytes)
// Checksum (4 bytes) - CRC32 of payload
// PayloadLength (4 bytes)
// Payload:
//
//	ID (8 bytes)
//	CreatedAt (8 bytes) - UnixNano
//	SegmentName (string)
//	TotalDocs (8 bytes)
//	FormatVersion (1 byte)
//	NumColumns (4 bytes)
//	Columns...
//	  Name (string)
//	  DataType, Role, Flags, Encoding (1 byte each)
//	  Cardinality (4 bytes)
//	  TotalDocs (8 bytes)
//	  BitsPerElement (1 byte)
//	  MaxMultiValues (4 bytes)
//	  TotalEntries (8 bytes)
//	  NumDefaults (4 bytes), each a tagged value (4-byte length + bytes)
//	  NumArtifacts (4 bytes), each Artifact (1 byte), Blob (string),
//	    Offset (8 bytes), Size (8 bytes)
func (m *Manifest) WriteBinary(w io.Writer) error {
	pb := newPayloadBuffer(make([]byte, 0, 64+len(m.Columns)*96))

	pb.writeUint64(m.ID)
	pb.writeUint64(uint64(m.CreatedAt.UnixNano()))
	pb.writeString(m.SegmentName)
	pb.writeUint64(uint64(m.TotalDocs))
	pb.writeUint8(uint8(m.FormatVersion))
	pb.writeUint32(uint32(len(m.Columns)))

	for i := range m.Columns {
		writeColumn(pb, &m.Columns[i])
	}

	if pb.err != nil {
		return pb.err
	}

	payload := pb.buf
	checksum := crc32.ChecksumIEEE(payload)

	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(header[4:8], binaryVersion)
	binary.LittleEndian.PutUint32(header[8:12], checksum)
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

func writeColumn(pb *payloadBuffer, c *ColumnDescriptor) {
	var flags uint8
	for _, f := range []struct {
		set  bool
		flag uint8
	}{
		{c.SingleValue, flagSingleValue},
		{c.TextIndex, flagTextIndex},
		{c.HasDictionary, flagHasDictionary},
		{c.Sorted, flagSorted},
		{c.AutoGenerated, flagAutoGenerated},
		{c.HasNullVector, flagHasNullVector},
	} {
		if f.set {
			flags |= f.flag
		}
	}

	pb.writeString(c.Name)
	pb.writeUint8(uint8(c.DataType))
	pb.writeUint8(uint8(c.Role))
	pb.writeUint8(flags)
	pb.writeUint8(uint8(c.Encoding))
	pb.writeUint32(uint32(c.Cardinality))
	pb.writeUint64(uint64(c.TotalDocs))
	pb.writeUint8(uint8(c.BitsPerElement))
	pb.writeUint32(uint32(c.MaxMultiValues))
	pb.writeUint64(uint64(c.TotalEntries))

	pb.writeUint32(uint32(len(c.Defaults)))
	for _, v := range c.Defaults {
		b, err := value.AppendTagged(nil, v)
		if err != nil {
			pb.fail(fmt.Errorf("column %q default: %w", c.Name, err))
			return
		}
		pb.writeBytes(b)
	}

	pb.writeUint32(uint32(len(c.Artifacts)))
	for _, l := range c.Artifacts {
		pb.writeUint8(uint8(l.Artifact))
		pb.writeString(l.Blob)
		pb.writeUint64(uint64(l.Offset))
		pb.writeUint64(uint64(l.Size))
	}
}

// ReadBinary reads the manifest from binary format.
func ReadBinary(r io.Reader) (*Manifest, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != binaryMagic {
		return nil, fmt.Errorf("invalid magic: %x", magic)
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != binaryVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, version)
	}
	checksum := binary.LittleEndian.Uint32(header[8:12])
	length := binary.LittleEndian.Uint32(header[12:16])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, fmt.Errorf("checksum mismatch")
	}

	pb := newPayloadBuffer(payload)
	m := &Manifest{Version: int(version)}

	m.ID = pb.readUint64()
	m.CreatedAt = time.Unix(0, int64(pb.readUint64()))
	m.SegmentName = pb.readString()
	m.TotalDocs = int(pb.readUint64())
	m.FormatVersion = segment.FormatVersion(pb.readUint8())

	numColumns := pb.readUint32()
	if pb.err == nil && int(numColumns) > pb.remaining() {
		return nil, fmt.Errorf("column count %d exceeds payload", numColumns)
	}
	m.Columns = make([]ColumnDescriptor, 0, numColumns)
	for i := 0; i < int(numColumns) && pb.err == nil; i++ {
		m.Columns = append(m.Columns, readColumn(pb))
	}

	if pb.err != nil {
		return nil, pb.err
	}

	return m, nil
}

func readColumn(pb *payloadBuffer) ColumnDescriptor {
	var c ColumnDescriptor
	c.Name = pb.readString()
	c.DataType = value.Type(pb.readUint8())
	c.Role = schema.Role(pb.readUint8())
	flags := pb.readUint8()
	c.SingleValue = flags&flagSingleValue != 0
	c.TextIndex = flags&flagTextIndex != 0
	c.HasDictionary = flags&flagHasDictionary != 0
	c.Sorted = flags&flagSorted != 0
	c.AutoGenerated = flags&flagAutoGenerated != 0
	c.HasNullVector = flags&flagHasNullVector != 0
	c.Encoding = Encoding(pb.readUint8())
	c.Cardinality = int(pb.readUint32())
	c.TotalDocs = int(pb.readUint64())
	c.BitsPerElement = int(pb.readUint8())
	c.MaxMultiValues = int(pb.readUint32())
	c.TotalEntries = int(pb.readUint64())

	numDefaults := pb.readUint32()
	for i := 0; i < int(numDefaults) && pb.err == nil; i++ {
		b := pb.readBytes()
		if pb.err != nil {
			break
		}
		v, _, err := value.ParseTagged(b)
		if err != nil {
			pb.fail(fmt.Errorf("column %q default: %w", c.Name, err))
			break
		}
		c.Defaults = append(c.Defaults, v)
	}

	numArtifacts := pb.readUint32()
	for i := 0; i < int(numArtifacts) && pb.err == nil; i++ {
		var l segment.Location
		l.Artifact = segment.Artifact(pb.readUint8())
		l.Blob = pb.readString()
		l.Offset = int64(pb.readUint64())
		l.Size = int64(pb.readUint64())
		c.Artifacts = append(c.Artifacts, l)
	}
	return c
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *payloadBuffer) remaining() int { return len(p.buf) - p.pos }

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeUint8(v uint8) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > 65535 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) writeBytes(b []byte) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

func (p *payloadBuffer) readUint64() uint64 {
	if p.err != nil {
		return 0
	}
	if p.pos+8 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readUint8() uint8 {
	if p.err != nil {
		return 0
	}
	if p.pos+1 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := p.buf[p.pos]
	p.pos++
	return v
}

func (p *payloadBuffer) readString() string {
	if p.err != nil {
		return ""
	}
	if p.pos+2 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	l := binary.LittleEndian.Uint16(p.buf[p.pos:])
	p.pos += 2

	if p.pos+int(l) > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.pos : p.pos+int(l)])
	p.pos += int(l)
	return s
}

func (p *payloadBuffer) readBytes() []byte {
	l := int(p.readUint32())
	if p.err != nil {
		return nil
	}
	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	b := p.buf[p.pos : p.pos+l]
	p.pos += l
	return b
}
