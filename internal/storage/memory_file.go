package storage

import (
	"errors"
	"io"
)

var ErrFileClosed = errors.New("storage: file closed")

// MemoryFile is a File held entirely in memory
type MemoryFile struct {
	data   []byte
	closed bool
}

func NewMemoryFile(data []byte) *MemoryFile {
	return &MemoryFile{data: data}
}

// Bytes returns the current contents of the file
func (m *MemoryFile) Bytes() []byte {
	return m.data
}

func (m *MemoryFile) Size() (int64, error) {
	if m.closed {
		return 0, ErrFileClosed
	}
	return int64(len(m.data)), nil
}

func (m *MemoryFile) ReadAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrFileClosed
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemoryFile) WriteAt(p []byte, off int64) (int, error) {
	if m.closed {
		return 0, ErrFileClosed
	}

	// crudely expand memory to fit the write
	if end := off + int64(len(p)); end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}

	return copy(m.data[off:], p), nil
}

func (m *MemoryFile) Sync() error {
	if m.closed {
		return ErrFileClosed
	}
	return nil
}

func (m *MemoryFile) Close() error {
	if m.closed {
		return ErrFileClosed
	}
	m.closed = true
	return nil
}

var _ File = (*MemoryFile)(nil)
