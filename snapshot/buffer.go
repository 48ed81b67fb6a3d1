package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// maxString bounds a single length-prefixed field.
const maxString = math.MaxUint32

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

func (p *payloadBuffer) writeFloat64(v float64) {
	p.writeUint64(math.Float64bits(v))
}

func (p *payloadBuffer) writeBytes(b []byte) {
	if p.err != nil {
		return
	}
	if uint64(len(b)) > maxString {
		p.err = fmt.Errorf("field too long: %d", len(b))
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if uint64(len(s)) > maxString {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(s)))
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

func (p *payloadBuffer) readFloat64() float64 {
	return math.Float64frombits(p.readUint64())
}

func (p *payloadBuffer) readBytes() []byte {
	l := int(p.readUint32())
	if p.err != nil {
		return nil
	}
	if l > len(p.buf)-p.pos {
		p.err = io.ErrUnexpectedEOF
		return nil
	}
	b := p.buf[p.pos : p.pos+l]
	p.pos += l
	return b
}

func (p *payloadBuffer) readString() string {
	return string(p.readBytes())
}

// readCount reads an element count and rejects counts that could not fit in
// the remaining payload given a minimum encoded element size.
func (p *payloadBuffer) readCount(minElem int) int {
	n := int(p.readUint32())
	if p.err != nil {
		return 0
	}
	if minElem > 0 && n > (len(p.buf)-p.pos)/minElem {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	return n
}

func (p *payloadBuffer) remaining() int {
	return len(p.buf) - p.pos
}
