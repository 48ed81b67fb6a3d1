package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes after this many bytes written TO THIS FILE. -1 to disable.
	FailOnSync     bool
	FailOnClose    bool
	Err            error
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	Default Fault // Fallback when no rule matches.

	mu          sync.Mutex
	rules       map[string]Fault // Filename substring -> Fault
	renameErr   error
	written     int64
	globalLimit int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:          fs,
		rules:       make(map[string]Fault),
		Default:     Fault{FailAfterBytes: -1},
		globalLimit: -1,
	}
}

// Written returns the total bytes written through all files so far.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// SetLimit fails any write that would push the total past limit bytes.
func (f *FaultyFS) SetLimit(limit int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.globalLimit = limit
}

// FailRename makes every Rename return err. A nil err clears the fault.
func (f *FaultyFS) FailRename(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameErr = err
}

// AddRule adds a fault injection rule for files whose name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fault := f.Default
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.mu.Unlock()

	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error {
	return f.FS.Remove(name)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	err := f.renameErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	return f.FS.ReadDir(name)
}

type faultyFile struct {
	File
	fs      *FaultyFS
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (n int, err error) {
	// Check per-file limit FIRST before updating global counter
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.Err
	}

	ff.fs.mu.Lock()
	globalExceeded := ff.fs.globalLimit >= 0 && ff.fs.written+int64(len(p)) > ff.fs.globalLimit
	if !globalExceeded {
		ff.fs.written += int64(len(p))
	}
	ff.fs.mu.Unlock()

	if globalExceeded {
		return 0, ff.fault.Err
	}

	n, err = ff.File.Write(p)
	if n > 0 {
		ff.written += int64(n)
	}
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.Err
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.Err
	}
	return ff.File.Close()
}
