package catalog

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hupe1980/minsketch/internal/conv"
	"github.com/hupe1980/minsketch/internal/hash"
	"github.com/hupe1980/minsketch/minhash"
)

const (
	binaryMagic      = 0x4D534B43 // "MSKC"
	binaryHeaderSize = 16
	shardFixedSize   = 4 + 8 + 1 + 1 + 8 + 8
)

// WriteBinary writes the catalog in binary format.
func (c *Catalog) WriteBinary(w io.Writer) error {
	payloadSize := 20 + len(c.Shards)*(shardFixedSize+2+32)
	pb := newPayloadBuffer(make([]byte, 0, payloadSize))

	pb.writeUint64(c.Generation)
	pb.writeUint64(uint64(c.CreatedAt.UnixNano()))
	numShards, err := conv.Uint32(len(c.Shards))
	if err != nil {
		return err
	}
	pb.writeUint32(numShards)

	for _, s := range c.Shards {
		numPerm, err := conv.Count(s.NumPerm)
		if err != nil {
			return fmt.Errorf("shard %s: %w", s.Name, minhash.ErrInvalidNumPerm)
		}
		pb.writeString(s.Name)
		pb.writeUint32(uint32(numPerm))
		pb.writeUint64(uint64(s.Seed))
		pb.writeUint8(uint8(s.SeedPolicy))
		pb.writeUint8(uint8(s.Family))
		pb.writeUint64(uint64(s.Records))
		pb.writeUint64(uint64(s.Bytes))
	}

	if pb.err != nil {
		return pb.err
	}

	payload := pb.buf

	header := make([]byte, binaryHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(header[4:8], CurrentVersion)
	binary.LittleEndian.PutUint32(header[8:12], hash.CRC32C(payload))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadBinary reads a catalog from binary format.
func ReadBinary(r io.Reader) (*Catalog, error) {
	header := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != binaryMagic {
		return nil, fmt.Errorf("%w: invalid magic %x", ErrCorrupt, magic)
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, version)
	}
	checksum := binary.LittleEndian.Uint32(header[8:12])
	length := binary.LittleEndian.Uint32(header[12:16])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	if hash.CRC32C(payload) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	pb := newPayloadBuffer(payload)
	c := &Catalog{Version: int(version)}

	c.Generation = pb.readUint64()
	c.CreatedAt = time.Unix(0, int64(pb.readUint64()))

	numShards := pb.readUint32()
	if pb.err == nil && uint64(numShards)*(shardFixedSize+2) > uint64(len(payload)) {
		return nil, fmt.Errorf("%w: %d shards in %d bytes", ErrCorrupt, numShards, len(payload))
	}
	c.Shards = make([]Shard, numShards)
	for i := range c.Shards {
		s := &c.Shards[i]
		s.Name = pb.readString()
		s.NumPerm = int(pb.readUint32())
		s.Seed = int64(pb.readUint64())
		s.SeedPolicy = minhash.SeedPolicyKind(pb.readUint8())
		s.Family = minhash.HashFamily(pb.readUint8())
		s.Records = int64(pb.readUint64())
		s.Bytes = int64(pb.readUint64())
	}

	if pb.err != nil {
		return nil, pb.err
	}

	return c, nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

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
	if len(s) > math.MaxUint16 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
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
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2

	if p.pos+l > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}
