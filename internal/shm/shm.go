// Package shm maps fixed-size segments backed by files under a
// shared-memory-style directory (/dev/shm on Linux, falling back to the
// process's temp dir elsewhere), the same pattern
// _examples/other_examples/AlephTX-aleph-tx__ring.go uses for its
// zero-copy IPC ring.
package shm

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Segment is a byte-addressable mapping of a fixed-size backing file,
// shared across processes on the same host via mmap(MAP_SHARED).
type Segment struct {
	file *os.File
	Data []byte
}

// DefaultDir returns the directory new segments are created in absent an
// explicit override: /dev/shm when it exists and is a directory, else
// os.TempDir(). Writability is not checked.
func DefaultDir() string {
	if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// OpenOrCreate opens the segment named name under dir, creating and
// zero-extending the backing file to size bytes if it doesn't already
// have that size. Existing content of a pre-existing, correctly sized
// file is preserved, mirroring registry_open_or_create's "create if
// magic mismatches, else reuse" behavior one layer up.
func OpenOrCreate(dir, name string, size int) (*Segment, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Segment{file: f, Data: data}, nil
}

// Close unmaps the segment and closes its backing file descriptor. It does
// not remove the backing file; callers that own the segment call Unlink
// for that.
func (s *Segment) Close() error {
	if s == nil {
		return nil
	}
	if err := unix.Munmap(s.Data); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Unlink removes the named backing file under dir. Safe to call on
// already-removed files.
func Unlink(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists reports whether the named segment's backing file is present,
// without mapping it. Used by the mailbox existence probe (spec.md §4.6)
// to validate a registry entry before trusting it for display.
func Exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
