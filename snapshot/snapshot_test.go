package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/studyset/internal/hash"
	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
)

func testDataset() *Dataset {
	return &Dataset{
		ID:        uuid.MustParse("7f1f9a8e-2f7e-4a4b-9a52-0a4f7c0d1e23"),
		CreatedAt: time.Unix(1700000000, 123),
		Space:     "MNI",
		Studies: []*model.Study{
			{
				ID:          "S1",
				Coordinates: []model.Coordinate{{X: 1, Y: 2, Z: 3}, {X: -40.5, Y: math.Inf(1), Z: 0}},
				Images:      map[string]string{"z": "s1_z.nii", "beta": "s1_beta.nii"},
				Metadata: metadata.Document{
					"sample_size":    metadata.Int(20),
					"analysis_level": metadata.String("group"),
					"doi":            metadata.Null(),
				},
			},
			{ID: "S2", Images: map[string]string{"beta": "s2_beta.nii"}},
			{ID: "S3"},
		},
	}
}

func assertDatasetEqual(t *testing.T, want, got *Dataset) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.Space, got.Space)
	require.Len(t, got.Studies, len(want.Studies))
	for i := range want.Studies {
		assert.True(t, want.Studies[i].Equal(got.Studies[i]), want.Studies[i].ID)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			want := testDataset()

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, c, want))

			if c == CompressionNone {
				assert.True(t, IsSnapshot(buf.Bytes()))
			} else {
				assert.False(t, IsSnapshot(buf.Bytes()))
			}

			obj, err := Read(&buf, c)
			require.NoError(t, err)
			require.Equal(t, KindDataset, obj.Kind())
			assertDatasetEqual(t, want, obj.(*Dataset))
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, testDataset()))
	require.NoError(t, Encode(&b, testDataset()))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestEncodeAssignsIDAndTime(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Dataset{}))

	obj, err := Decode(&buf)
	require.NoError(t, err)
	d := obj.(*Dataset)
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.False(t, d.CreatedAt.IsZero())
	assert.Empty(t, d.Studies)
}

func TestDocumentKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &Document{Fields: metadata.Document{"a": metadata.Int(1)}}))

	obj, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, KindDocument, obj.Kind())
	assert.Equal(t, "document", obj.Kind().String())
	assert.Equal(t, metadata.Int(1), obj.(*Document).Fields["a"])
}

func encoded(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testDataset()))
	return buf.Bytes()
}

func TestDecodeInvalidMagic(t *testing.T) {
	data := encoded(t)
	copy(data, "NOPE")

	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data := encoded(t)
	binary.LittleEndian.PutUint32(data[4:8], 99)

	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	var ve *VersionError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, uint32(99), ve.Version)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	data := encoded(t)
	data[len(data)-1] ^= 0xFF

	_, err := Decode(bytes.NewReader(data))
	var ce *ChecksumMismatchError
	assert.ErrorAs(t, err, &ce)
}

func TestDecodeTruncated(t *testing.T) {
	data := encoded(t)
	for _, n := range []int{0, 3, HeaderSize - 1, HeaderSize, len(data) - 1} {
		_, err := Decode(bytes.NewReader(data[:n]))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "len %d", n)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	data := encoded(t)
	binary.LittleEndian.PutUint16(data[8:10], 77)

	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeCorruptPayload(t *testing.T) {
	// A payload that passes the checksum but claims more studies than it holds.
	payload := make([]byte, 16+8+4+4)
	binary.LittleEndian.PutUint32(payload[28:], 1000)

	var buf bytes.Buffer
	h := Header{Version: Version, Kind: KindDataset, Length: uint64(len(payload))}
	h.Checksum = hash.CRC32C(payload)
	hb, _ := h.MarshalBinary()
	buf.Write(hb)
	buf.Write(payload)

	_, err := Decode(&buf)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReadWrongCompression(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CompressionNone, testDataset()))

	_, err := Read(bytes.NewReader(buf.Bytes()), CompressionGzip)
	assert.Error(t, err)

	_, err = Read(bytes.NewReader(buf.Bytes()), CompressionZstd)
	assert.Error(t, err)
}

func TestCompressionForPath(t *testing.T) {
	tests := []struct {
		name string
		want Compression
	}{
		{"dataset.snap", CompressionNone},
		{"dataset.json", CompressionNone},
		{"dataset.gz", CompressionGzip},
		{"dataset.pklz", CompressionGzip},
		{"dataset.snapz", CompressionGzip},
		{"dataset.zst", CompressionZstd},
		{"dataset.lz4", CompressionLZ4},
		{"dir.zst/dataset", CompressionNone},
		{"snapshots/abc.zst", CompressionZstd},
		{"dataset.GZ", CompressionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompressionForPath(tt.name), tt.name)
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"": CompressionNone, "gzip": CompressionGzip, "ZSTD": CompressionZstd, "lz4": CompressionLZ4,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, want, CompressionForPath("x"+got.Ext()))
	}

	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestEncodeWriteError(t *testing.T) {
	assert.Error(t, Encode(&failingWriter{after: 0}, testDataset()))
	assert.Error(t, Encode(&failingWriter{after: 1}, testDataset()))
}
