//go:build unix || linux || darwin || freebsd || openbsd || netbsd

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ
	flags := unix.MAP_SHARED

	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, flags)
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}
