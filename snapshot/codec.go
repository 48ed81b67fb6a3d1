package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/studyset/internal/hash"
	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
)

// Encode writes obj as an uncompressed snapshot to w.
func Encode(w io.Writer, obj Object) error {
	payload, err := encodePayload(obj)
	if err != nil {
		return err
	}

	h := Header{
		Version:  Version,
		Kind:     obj.Kind(),
		Checksum: hash.CRC32C(payload),
		Length:   uint64(len(payload)),
	}
	header, _ := h.MarshalBinary()

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

// Decode reads an uncompressed snapshot from r.
//
// Errors wrap ErrInvalidMagic, ErrUnsupportedVersion, ErrUnknownKind,
// ErrCorrupt, *ChecksumMismatchError or io.ErrUnexpectedEOF.
func Decode(r io.Reader) (Object, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	// Read through a limit so a corrupt length cannot force a huge allocation.
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(min(h.Length, 1<<62))))
	if err != nil {
		return nil, err
	}
	if uint64(n) != h.Length {
		return nil, io.ErrUnexpectedEOF
	}

	payload := buf.Bytes()
	if sum := hash.CRC32C(payload); sum != h.Checksum {
		return nil, &ChecksumMismatchError{Expected: h.Checksum, Actual: sum}
	}

	return decodePayload(h.Kind, payload)
}

func encodePayload(obj Object) ([]byte, error) {
	switch o := obj.(type) {
	case *Dataset:
		return encodeDataset(o)
	case *Document:
		return o.Fields.MarshalBinary()
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, obj)
	}
}

func decodePayload(kind Kind, payload []byte) (Object, error) {
	switch kind {
	case KindDataset:
		return decodeDataset(payload)
	case KindDocument:
		var doc metadata.Document
		if err := doc.UnmarshalBinary(payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return &Document{Fields: doc}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Dataset payload:
//
//	ID         (16 bytes)
//	CreatedAt  (8 bytes) UnixNano
//	Space      (string)
//	NumStudies (4 bytes)
//	Studies...
//	  ID          (string)
//	  Metadata    (bytes) metadata.Document binary encoding
//	  NumImages   (4 bytes)
//	  Images...   label (string), path (string); ascending label
//	  NumCoords   (4 bytes)
//	  Coords...   X, Y, Z (8 bytes each)
//
// Strings and byte fields carry a 4-byte length prefix.
func encodeDataset(d *Dataset) ([]byte, error) {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	pb := newPayloadBuffer(make([]byte, 0, 64+len(d.Studies)*128))
	pb.buf = append(pb.buf, id[:]...)
	pb.writeUint64(uint64(created.UnixNano()))
	pb.writeString(d.Space)
	pb.writeUint32(uint32(len(d.Studies)))

	var md []byte
	for _, s := range d.Studies {
		pb.writeString(s.ID)

		var err error
		md, err = s.Metadata.AppendBinary(md[:0])
		if err != nil {
			return nil, fmt.Errorf("study %q: %w", s.ID, err)
		}
		pb.writeBytes(md)

		labels := s.ImageLabels()
		pb.writeUint32(uint32(len(labels)))
		for _, label := range labels {
			pb.writeString(label)
			pb.writeString(s.Images[label])
		}

		pb.writeUint32(uint32(len(s.Coordinates)))
		for _, c := range s.Coordinates {
			pb.writeFloat64(c.X)
			pb.writeFloat64(c.Y)
			pb.writeFloat64(c.Z)
		}
	}

	if pb.err != nil {
		return nil, pb.err
	}
	return pb.buf, nil
}

func decodeDataset(payload []byte) (*Dataset, error) {
	if len(payload) < 16 {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}

	d := &Dataset{}
	copy(d.ID[:], payload[:16])

	pb := newPayloadBuffer(payload)
	pb.pos = 16
	d.CreatedAt = time.Unix(0, int64(pb.readUint64()))
	d.Space = pb.readString()

	// Smallest study: empty id, empty metadata blob, no images, no coordinates.
	numStudies := pb.readCount(4 + 4 + 4 + 4)
	d.Studies = make([]*model.Study, 0, numStudies)
	for range numStudies {
		s := &model.Study{ID: pb.readString()}

		md := pb.readBytes()
		if pb.err != nil {
			break
		}
		if err := s.Metadata.UnmarshalBinary(md); err != nil {
			return nil, fmt.Errorf("%w: study %q metadata: %w", ErrCorrupt, s.ID, err)
		}
		if len(s.Metadata) == 0 {
			s.Metadata = nil
		}

		if numImages := pb.readCount(8); numImages > 0 {
			s.Images = make(map[string]string, numImages)
			for range numImages {
				label := pb.readString()
				s.Images[label] = pb.readString()
			}
		}

		if numCoords := pb.readCount(24); numCoords > 0 {
			s.Coordinates = make([]model.Coordinate, numCoords)
			for i := range s.Coordinates {
				s.Coordinates[i] = model.Coordinate{
					X: pb.readFloat64(),
					Y: pb.readFloat64(),
					Z: pb.readFloat64(),
				}
			}
		}

		d.Studies = append(d.Studies, s)
	}

	if pb.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, pb.err)
	}
	if pb.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, pb.remaining())
	}
	return d, nil
}
