package art

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MMap is a byte slice backed by an mmap'd region of a file, giving the
// serializer direct, page-cache-backed access to the index file without an
// intervening read syscall per block.
type MMap []byte

// Map mmaps length bytes of f starting at offset 0 for read/write, growing
// the file first if it is shorter than length.
func Map(f *os.File, length int) (MMap, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("art: stat for mmap: %w", err)
	}
	if info.Size() < int64(length) {
		if err := f.Truncate(int64(length)); err != nil {
			return nil, fmt.Errorf("art: truncate for mmap: %w", err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("art: mmap: %w", err)
	}
	return MMap(data), nil
}

// Unmap releases the mapping. The MMap value must not be used afterward.
func (m MMap) Unmap() error {
	if m == nil {
		return nil
	}
	if err := unix.Munmap(m); err != nil {
		return fmt.Errorf("art: munmap: %w", err)
	}
	return nil
}

// Flush forces dirty pages in the mapping out to the backing file.
func (m MMap) Flush() error {
	if m == nil {
		return nil
	}
	if err := unix.Msync(m, unix.MS_SYNC); err != nil {
		return fmt.Errorf("art: msync: %w", err)
	}
	return nil
}
