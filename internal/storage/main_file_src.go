package storage

import (
	"io"
	"os"
)

// File is the backing store of a pager
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// Size is the current length of the file in bytes
	Size() (int64, error)
	Sync() error
}

// DbFile is a File on disk
type DbFile struct {
	path string
	file *os.File
}

// OpenDbFile opens or creates the database file at path
func OpenDbFile(path string) (*DbFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	return &DbFile{
		path: path,
		file: file,
	}, nil
}

func (f *DbFile) Path() string {
	return f.path
}

func (f *DbFile) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *DbFile) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}

func (f *DbFile) WriteAt(p []byte, off int64) (int, error) {
	return f.file.WriteAt(p, off)
}

func (f *DbFile) Sync() error {
	return f.file.Sync()
}

func (f *DbFile) Close() error {
	return f.file.Close()
}

var _ File = (*DbFile)(nil)
