// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// # Atomic Writes
//
// [WriteFileAtomic] writes through a temporary file in the target directory,
// syncs it and renames it over the target. A failure at any step removes the
// temporary file and leaves an existing target untouched.
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.SetLimit(1024) // Fail after 1KB written
//	err := fs.WriteFileAtomic(ffs, path, 0o644, write)
//
// Operations take no context.Context; local syscalls are not interruptible.
package fs
