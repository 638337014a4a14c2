// Package mmapfile opens a regular file and maps its full contents into
// memory for shared, in-place read/write access, the way every harness in
// this module backs an *xv6fs.Image. It exists so none of the xv6fs
// package itself needs to know about file descriptors or the OS mmap
// syscall — Image only ever sees a []byte.
package mmapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// File is a memory-mapped regular file. The zero value is not usable;
// construct one with Open or Create.
type File struct {
	f    *os.File
	data []byte
}

// Open maps an existing file for reading and writing.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return mapFile(f)
}

// Create truncates path to exactly size bytes (creating it if necessary)
// and maps it, the way newfs prepares a brand new image file before
// formatting it.
func Create(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, err
	}
	return mapFile(f)
}

func mapFile(f *os.File) (*File, error) {
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := st.Size()
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("mmapfile: %s: empty file", f.Name())
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapfile: %s: mmap: %w", f.Name(), err)
	}
	return &File{f: f, data: data}, nil
}

// Bytes returns the mapped region. Writes through the returned slice are
// writes to the file, visible to other mappers once Sync is called.
func (m *File) Bytes() []byte {
	return m.data
}

// Sync flushes dirty pages back to the backing file.
func (m *File) Sync() error {
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Close flushes, unmaps and closes the backing file descriptor.
func (m *File) Close() error {
	syncErr := m.Sync()
	unmapErr := unix.Munmap(m.data)
	closeErr := m.f.Close()
	if syncErr != nil {
		return syncErr
	}
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
