package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const atomicBufferSize = 256 * 1024

// WriteFileAtomic writes name through a temporary sibling file, then syncs and
// renames it into place. On any error the temporary file is removed and an
// existing file at name is left as it was.
func WriteFileAtomic(fsys FileSystem, name string, perm os.FileMode, write func(io.Writer) error) (err error) {
	if fsys == nil {
		fsys = Default
	}

	dir := filepath.Dir(name)
	tmpName := filepath.Join(dir, "."+filepath.Base(name)+".tmp-"+uuid.NewString())

	tmp, err := fsys.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close()
		}
		_ = fsys.Remove(tmpName)
	}()

	buf := bufio.NewWriterSize(tmp, atomicBufferSize)
	if err := write(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := fsys.Rename(tmpName, name); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	_ = syncDir(fsys, dir)
	return nil
}

// syncDir syncs a directory to ensure metadata changes are persisted.
func syncDir(fsys FileSystem, dir string) error {
	f, err := fsys.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Sync()
}
