package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, B.4: 32 bytes of zeros.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))

	h := NewCRC32C()
	_, _ = h.Write([]byte("1234"))
	_, _ = h.Write([]byte("56789"))
	assert.Equal(t, CRC32C([]byte("123456789")), h.Sum32())
}
