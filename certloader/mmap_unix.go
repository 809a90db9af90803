// File: certloader/mmap_unix.go
//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package certloader

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("certloader: open: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("certloader: stat: %w", err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedBundle)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("certloader: mmap: %w", err)
	}
	return data, nil
}

func unmapFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Munmap(data)
}
