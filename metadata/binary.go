package metadata

import (
	"encoding/binary"
	"errors"
	"math"
	"unique"
)

var (
	// ErrShortBuffer is returned when binary metadata ends before a value does.
	ErrShortBuffer = errors.New("metadata: short buffer")
	// ErrUnknownKind is returned for an unrecognized value kind byte.
	ErrUnknownKind = errors.New("metadata: unknown kind")
)

// MarshalBinary implements encoding.BinaryMarshaler.
//
// Fields are written in ascending key order so equal documents encode to equal bytes.
func (d Document) MarshalBinary() ([]byte, error) {
	return d.AppendBinary(make([]byte, 0, 4+len(d)*16))
}

// AppendBinary appends the binary encoding of d to buf.
func (d Document) AppendBinary(buf []byte) ([]byte, error) {
	buf = binary.AppendUvarint(buf, uint64(len(d)))

	for _, k := range d.Keys() {
		buf = binary.AppendUvarint(buf, uint64(len(k)))
		buf = append(buf, k...)

		var err error
		buf, err = appendValue(buf, d[k])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Document) UnmarshalBinary(data []byte) error {
	_, err := d.unmarshalBinaryN(data)
	return err
}

// UnmarshalBinaryN decodes a document from the front of data and returns the
// number of bytes consumed.
func (d *Document) UnmarshalBinaryN(data []byte) (int, error) {
	return d.unmarshalBinaryN(data)
}

func (d *Document) unmarshalBinaryN(data []byte) (int, error) {
	total := len(data)
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, errors.New("metadata: invalid document length")
	}
	data = data[n:]
	if count > uint64(len(data)) {
		// Each field needs at least two bytes; reject absurd counts early.
		return 0, ErrShortBuffer
	}

	if *d == nil {
		*d = make(Document, count)
	}

	for range count {
		kLen, n := binary.Uvarint(data)
		if n <= 0 {
			return 0, errors.New("metadata: invalid key length")
		}
		data = data[n:]
		if uint64(len(data)) < kLen {
			return 0, ErrShortBuffer
		}
		key := string(data[:kLen])
		data = data[kLen:]

		val, remaining, err := parseValue(data)
		if err != nil {
			return 0, err
		}
		(*d)[key] = val
		data = remaining
	}
	return total - len(data), nil
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	buf = append(buf, byte(v.Kind))

	switch v.Kind {
	case KindNull:
	case KindInt:
		buf = binary.AppendVarint(buf, v.I64)
	case KindFloat:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.F64))
	case KindString:
		s := v.s.Value()
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	case KindBool:
		if v.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindArray:
		buf = binary.AppendUvarint(buf, uint64(len(v.A)))
		for _, item := range v.A {
			var err error
			buf, err = appendValue(buf, item)
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, ErrUnknownKind
	}
	return buf, nil
}

func parseValue(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, ErrShortBuffer
	}
	kind := Kind(data[0])
	data = data[1:]

	var v Value
	v.Kind = kind

	switch kind {
	case KindNull:
	case KindInt:
		i, n := binary.Varint(data)
		if n <= 0 {
			return v, nil, errors.New("metadata: invalid int value")
		}
		v.I64 = i
		data = data[n:]
	case KindFloat:
		if len(data) < 8 {
			return v, nil, ErrShortBuffer
		}
		v.F64 = math.Float64frombits(binary.LittleEndian.Uint64(data))
		data = data[8:]
	case KindString:
		sLen, n := binary.Uvarint(data)
		if n <= 0 {
			return v, nil, errors.New("metadata: invalid string length")
		}
		data = data[n:]
		if uint64(len(data)) < sLen {
			return v, nil, ErrShortBuffer
		}
		v.s = unique.Make(string(data[:sLen]))
		data = data[sLen:]
	case KindBool:
		if len(data) == 0 {
			return v, nil, ErrShortBuffer
		}
		v.B = data[0] != 0
		data = data[1:]
	case KindArray:
		aLen, n := binary.Uvarint(data)
		if n <= 0 {
			return v, nil, errors.New("metadata: invalid array length")
		}
		data = data[n:]
		if aLen > uint64(len(data)) {
			return v, nil, ErrShortBuffer
		}
		v.A = make([]Value, aLen)
		for i := range aLen {
			item, remaining, err := parseValue(data)
			if err != nil {
				return v, nil, err
			}
			v.A[i] = item
			data = remaining
		}
	default:
		return v, nil, ErrUnknownKind
	}
	return v, data, nil
}
