package snapshot

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec wrapped around a snapshot stream.
type Compression uint8

const (
	// CompressionNone stores the stream raw.
	CompressionNone Compression = iota
	// CompressionGzip uses gzip.
	CompressionGzip
	// CompressionZstd uses Zstandard.
	CompressionZstd
	// CompressionLZ4 uses the LZ4 frame format.
	CompressionLZ4
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Ext returns the canonical file extension for c.
func (c Compression) Ext() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// CompressionForPath chooses a codec from a file or blob name:
//
//	*.zst        zstd
//	*.lz4        lz4
//	*z           gzip (".gz", ".pklz", ".snapz", ...)
//	anything else  none
//
// Matching is case-sensitive.
func CompressionForPath(name string) Compression {
	switch ext := path.Ext(name); {
	case ext == ".zst":
		return CompressionZstd
	case ext == ".lz4":
		return CompressionLZ4
	case strings.HasSuffix(name, "z"):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// ParseCompression maps a codec name ("none", "gzip", "zstd", "lz4") to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none", "raw":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", s)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with the codec. Close flushes the codec but does not
// close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}
}

// NewReader wraps r with the codec. Close releases codec resources but does
// not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}
}

// Write encodes obj to w, compressed with c.
func Write(w io.Writer, c Compression, obj Object) error {
	cw, err := NewWriter(w, c)
	if err != nil {
		return err
	}
	if err := Encode(cw, obj); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

// Read decodes an object from r, decompressed with c.
func Read(r io.Reader, c Compression) (Object, error) {
	cr, err := NewReader(r, c)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	return Decode(cr)
}
