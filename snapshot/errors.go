package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic is returned when the stream does not start with the snapshot magic.
	ErrInvalidMagic = errors.New("snapshot: invalid magic")
	// ErrUnsupportedVersion is returned for a format version this build cannot read.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrUnknownKind is returned for an unrecognized object kind.
	ErrUnknownKind = errors.New("snapshot: unknown object kind")
	// ErrCorrupt is returned when the payload passes the checksum but cannot be decoded.
	ErrCorrupt = errors.New("snapshot: corrupt payload")
)

// ChecksumMismatchError is returned when payload verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("snapshot: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// VersionError reports the version found in an unsupported snapshot.
type VersionError struct {
	Version uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("snapshot: unsupported version %d (supported: %d)", e.Version, Version)
}

func (e *VersionError) Unwrap() error { return ErrUnsupportedVersion }
