package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Magic identifies a snapshot stream.
	Magic = "SSNP"
	// Version is the format version written by this package.
	Version uint32 = 1
	// HeaderSize is the encoded header length in bytes.
	HeaderSize = 24
)

// Kind identifies the object stored in a snapshot.
type Kind uint16

const (
	// KindDataset is a full study dataset.
	KindDataset Kind = 1
	// KindDocument is a bare metadata mapping.
	KindDocument Kind = 2
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDataset:
		return "dataset"
	case KindDocument:
		return "document"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// Header is the fixed-size snapshot header.
type Header struct {
	Version  uint32
	Kind     Kind
	Flags    uint16
	Checksum uint32
	Length   uint64
}

// MarshalBinary encodes the header.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(h.Kind))
	buf = binary.LittleEndian.AppendUint16(buf, h.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, h.Checksum)
	buf = binary.LittleEndian.AppendUint64(buf, h.Length)
	return buf, nil
}

// ReadHeader reads and validates a header from r.
// The magic and the version are checked; the kind is not.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Header{}, err
	}

	if !IsSnapshot(buf) {
		return Header{}, ErrInvalidMagic
	}

	h := Header{
		Version:  binary.LittleEndian.Uint32(buf[4:8]),
		Kind:     Kind(binary.LittleEndian.Uint16(buf[8:10])),
		Flags:    binary.LittleEndian.Uint16(buf[10:12]),
		Checksum: binary.LittleEndian.Uint32(buf[12:16]),
		Length:   binary.LittleEndian.Uint64(buf[16:24]),
	}
	if h.Version != Version {
		return h, &VersionError{Version: h.Version}
	}
	return h, nil
}

// IsSnapshot reports whether prefix starts with the snapshot magic.
func IsSnapshot(prefix []byte) bool {
	return bytes.HasPrefix(prefix, []byte(Magic))
}
