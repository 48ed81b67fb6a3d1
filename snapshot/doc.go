// Package snapshot implements the versioned binary snapshot format.
//
// A snapshot is a 24-byte little-endian header followed by a payload:
//
//	Magic    (4 bytes)  "SSNP"
//	Version  (4 bytes)  format version, currently 1
//	Kind     (2 bytes)  object kind (dataset, document)
//	Flags    (2 bytes)  reserved, zero
//	Checksum (4 bytes)  CRC32C (Castagnoli) of the payload
//	Length   (8 bytes)  payload length
//
// The whole stream may be wrapped in a compression codec chosen from the file
// name (see CompressionForPath). The header is always validated before the
// payload is decoded and the caller receives a typed Object, so a snapshot of
// the wrong kind can be rejected without being used.
package snapshot
