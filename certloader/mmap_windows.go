// File: certloader/mmap_windows.go
//go:build windows

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Certificate bundles are small (a few KB) and loaded once at server start;
// Windows file-mapping syscalls add no measurable benefit here, so this
// platform reads the bundle into a plain heap buffer instead of mapping it
// (the same simplification the teacher makes for its own buffer pool on
// Linux in core/buffer/bufferpool_linux.go: "use heap allocation instead of
// mmap hugepages").

package certloader

import (
	"fmt"
	"os"
)

func mapFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("certloader: read: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedBundle)
	}
	return data, nil
}

func unmapFile(data []byte) error {
	return nil
}
