// Package mmap provides read-only memory-mapped file access.
//
// The local blob store maps snapshot and image files instead of reading them
// into the heap, so ranged reads (ReadAt) are served straight from the page
// cache.
//
//	m, err := mmap.Open("dataset.snap")
//	if err != nil { ... }
//	defer m.Close()
//
//	n, err := m.ReadAt(buf, off)
//
// Unix uses mmap(2); Windows uses CreateFileMapping/MapViewOfFile.
//
// A Mapping is safe for concurrent reads. Close is idempotent; ReadAt after
// Close fails with ErrClosed, and callers must not use slices returned by
// Bytes after Close.
package mmap
