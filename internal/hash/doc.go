// Package hash provides the CRC32-Castagnoli (CRC32C) checksum used by
// snapshot headers.
//
//	checksum := hash.CRC32C(payload)
//
// Go's hash/crc32 uses hardware instructions for the Castagnoli polynomial
// on amd64 (SSE4.2) and arm64.
package hash
