package watchface

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File holds the bytes of a watch face file, mapped read-only when possible.
type File struct {
	Data    []byte
	mmapped bool
}

// maxFileSize bounds what OpenFile will map or read. Watch face files are a
// few megabytes at most.
const maxFileSize = 1 << 30

var errFileTooLarge = errors.New("watch face file too large")

// OpenFile maps path read-only. If mmap is unavailable it falls back to
// ReadAt-based loading. The returned file must be closed to release any
// mapping, and Data must not be used afterwards.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > maxFileSize {
		return nil, errFileTooLarge
	}
	size := int(size64)
	if size == 0 {
		return &File{Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Data: data, mmapped: true}, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}

// ReadFrom loads a file from a random-access reader without mmap.
func ReadFrom(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > maxFileSize {
		return nil, errFileTooLarge
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases the mapping, if any.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	var err error
	if f.mmapped && f.Data != nil {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.mmapped = false
	return err
}
