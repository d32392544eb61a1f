package handoff

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/cepgo/codec"
	"github.com/hupe1980/cepgo/internal/conv"
	"github.com/hupe1980/cepgo/internal/hash"
	"github.com/hupe1980/cepgo/row"
	"github.com/hupe1980/cepgo/rowop"
)

// Frame layout:
//
//	magic [4]byte "CEPH"
//	version uint8
//	compression uint8
//	codec name length uint16, codec name
//	crc32c uint32 of the block
//	block: [uncompressed uint32][compressed uint32][data]
//
// The block data holds:
//
//	schema length uint32, schema encoded with the named codec
//	rowop count uint32
//	per rowop: label index uint16, opcode int32, row length uint32, row bytes
//
// A row length of 0xFFFFFFFF marks a rowop without a row.
// All integers are little endian.
const (
	Version = 1

	noRow        = math.MaxUint32
	maxBodySize  = 1 << 30
	fixedHdrSize = 4 + 1 + 1 + 2
)

var magic = [4]byte{'C', 'E', 'P', 'H'}

// Options configure frame encoding.
type Options struct {
	// Compression of the frame body. Defaults to CompressionNone.
	Compression Compression
	// Codec encodes the schema. Defaults to codec.Default.
	Codec codec.Codec
}

// Header is the decoded fixed part of a frame.
type Header struct {
	Version     uint8
	Compression Compression
	Codec       string
	Checksum    uint32
}

// Encode serializes the rowops of tray into a frame. The tray is not
// modified and keeps ownership of its rowops.
func Encode(tray *rowop.Tray, opts Options) ([]byte, error) {
	if !opts.Compression.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(opts.Compression))
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	var (
		schema  Schema
		indexes = make(map[string]int)
		types   []row.Type
	)
	ops := make([]byte, 0, 64*tray.Len())
	count := 0
	for op := range tray.All() {
		l := op.Label()
		idx, ok := indexes[l.Name()]
		switch {
		case !ok:
			idx = len(schema.Labels)
			if idx > math.MaxUint16 {
				return nil, fmt.Errorf("handoff: more than %d labels in one tray", math.MaxUint16+1)
			}
			indexes[l.Name()] = idx
			schema.Labels = append(schema.Labels, describe(l.Name(), l.RowType()))
			types = append(types, l.RowType())
		case !types[idx].Equal(l.RowType()):
			return nil, &LabelError{Label: l.Name(), Err: ErrLabelMismatch}
		}

		ops = binary.LittleEndian.AppendUint16(ops, uint16(idx)) //nolint:gosec // checked above
		ops = binary.LittleEndian.AppendUint32(ops, uint32(op.Opcode()))
		if r := op.Row(); r != nil {
			n, err := conv.IntToUint32(len(r.Bytes()))
			if err != nil || n == noRow {
				return nil, &LabelError{Label: l.Name(), Err: fmt.Errorf("row of %d bytes is too large", len(r.Bytes()))}
			}
			ops = binary.LittleEndian.AppendUint32(ops, n)
			ops = append(ops, r.Bytes()...)
		} else {
			ops = binary.LittleEndian.AppendUint32(ops, noRow)
		}
		count++
	}

	schemaBytes, err := c.Marshal(&schema)
	if err != nil {
		return nil, fmt.Errorf("handoff: encode schema: %w", err)
	}
	schemaLen, err := conv.IntToUint32(len(schemaBytes))
	if err != nil {
		return nil, err
	}
	n, err := conv.IntToUint32(count)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, 8+len(schemaBytes)+len(ops))
	body = binary.LittleEndian.AppendUint32(body, schemaLen)
	body = append(body, schemaBytes...)
	body = binary.LittleEndian.AppendUint32(body, n)
	body = append(body, ops...)
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: body of %d bytes", ErrFrameTooLarge, len(body))
	}

	block, err := appendBlock(nil, body, opts.Compression)
	if err != nil {
		return nil, err
	}

	name := c.Name()
	nameLen, err := conv.IntToUint16(len(name))
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, fixedHdrSize+len(name)+4+len(block))
	frame = append(frame, magic[:]...)
	frame = append(frame, Version, byte(opts.Compression))
	frame = binary.LittleEndian.AppendUint16(frame, nameLen)
	frame = append(frame, name...)
	frame = binary.LittleEndian.AppendUint32(frame, hash.CRC32C(block))
	return append(frame, block...), nil
}

// ReadHeader decodes the fixed part of a frame and returns the block that
// follows it.
func ReadHeader(frame []byte) (Header, []byte, error) {
	if len(frame) < fixedHdrSize || [4]byte(frame[:4]) != magic {
		return Header{}, nil, ErrBadMagic
	}
	h := Header{Version: frame[4], Compression: Compression(frame[5])}
	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if !h.Compression.valid() {
		return h, nil, fmt.Errorf("%w: %d", ErrUnknownCompression, frame[5])
	}
	nameLen := int(binary.LittleEndian.Uint16(frame[6:]))
	rest := frame[fixedHdrSize:]
	if len(rest) < nameLen+4 {
		return h, nil, corrupt("truncated header")
	}
	h.Codec = string(rest[:nameLen])
	h.Checksum = binary.LittleEndian.Uint32(rest[nameLen:])
	return h, rest[nameLen+4:], nil
}

// Decode rebuilds the tray carried by frame. Each label is looked up with
// resolver; a nil resolver yields dummy labels over the frame's own row
// types. Rows are created by the resolved labels' row types, so the result
// shares nothing with the sender.
func Decode(frame []byte, resolver Resolver) (*rowop.Tray, error) {
	h, block, err := ReadHeader(frame)
	if err != nil {
		return nil, err
	}
	if hash.CRC32C(block) != h.Checksum {
		return nil, ErrChecksum
	}
	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}
	body, err := readBlock(block, h.Compression, maxBodySize)
	if err != nil {
		return nil, err
	}

	rd := reader{buf: body}
	schemaBytes := rd.bytes(int(rd.uint32()))
	if rd.err != nil {
		return nil, rd.err
	}
	var schema Schema
	if err := c.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("%w: schema: %w", ErrCorrupt, err)
	}
	labels, err := resolveLabels(schema, resolver)
	if err != nil {
		return nil, err
	}

	count := rd.uint32()
	tray := rowop.NewTray()
	for i := uint32(0); i < count && rd.err == nil; i++ {
		idx := int(rd.uint16())
		opcode := rowop.Opcode(int32(rd.uint32())) //nolint:gosec // round trip of int32
		size := rd.uint32()
		if rd.err != nil {
			break
		}
		if idx >= len(labels) {
			rd.err = corrupt("rowop %d references label %d of %d", i, idx, len(labels))
			break
		}
		op, err := makeRowop(labels[idx], opcode, size, &rd)
		if err != nil {
			tray.Release()
			return nil, err
		}
		tray.PushBack(op)
	}
	if rd.err == nil && rd.remaining() != 0 {
		rd.err = corrupt("%d trailing bytes", rd.remaining())
	}
	if rd.err != nil {
		tray.Release()
		return nil, rd.err
	}
	return tray, nil
}

func makeRowop(l rowop.Label, opcode rowop.Opcode, size uint32, rd *reader) (*rowop.Rowop, error) {
	if size == noRow {
		if !opcode.IsNop() {
			return nil, &LabelError{Label: l.Name(), Err: corrupt("%s rowop without a row", opcode)}
		}
		return rowop.New(l, opcode, nil), nil
	}
	data := rd.bytes(int(size))
	if rd.err != nil {
		return nil, rd.err
	}
	r, err := l.RowType().MakeRowFromBytes(data)
	if err != nil {
		return nil, &LabelError{Label: l.Name(), Err: fmt.Errorf("%w: %w", ErrCorrupt, err)}
	}
	op := rowop.New(l, opcode, r)
	r.Release()
	return op, nil
}

func resolveLabels(schema Schema, resolver Resolver) ([]rowop.Label, error) {
	labels := make([]rowop.Label, len(schema.Labels))
	for i, ls := range schema.Labels {
		rt, err := ls.RowType()
		if err != nil {
			return nil, &LabelError{Label: ls.Name, Err: err}
		}
		if resolver == nil {
			labels[i] = rowop.NewDummyLabel(ls.Name, rt)
			continue
		}
		l, err := resolver.Resolve(ls.Name, rt)
		if err != nil {
			return nil, &LabelError{Label: ls.Name, Err: err}
		}
		if l == nil || !l.RowType().Match(rt) {
			return nil, &LabelError{Label: ls.Name, Err: ErrLabelMismatch}
		}
		labels[i] = l
	}
	return labels, nil
}

// reader is a bounds-checked cursor over a frame body. The first failure
// sticks and turns later reads into no-ops.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = corrupt("need %d bytes at offset %d, have %d", n, r.off, r.remaining())
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) uint32() uint32 {
	if b := r.bytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}
