//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// osMap maps the first size bytes of f read-only. The view keeps its own
// reference to the mapping object, so the handle is closed right away.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	if size == 0 {
		return nil, nil, nil
	}

	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	unmap := func([]byte) error { return windows.UnmapViewOfFile(addr) }
	return data, unmap, nil
}

// osAdvise is a no-op: Windows has no madvise equivalent for mapped views.
func osAdvise([]byte, AccessPattern) error { return nil }
