package pager

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/dberr"
	"github.com/joeandaverde/tinytable/internal/storage"
)

const (
	DefaultPageSize = 4096
	DefaultMaxPages = 100
)

var ErrClosed = errors.New("pager: closed")

// Config describes the page geometry of the backing file
type Config struct {
	// PageSize is the size of a cached page in bytes
	PageSize int
	// MaxPages bounds both the cache and the file
	MaxPages int
	// RecordSize is the width of the fixed records packed into pages.
	// A page never holds a partial record.
	RecordSize int
}

func (c Config) validate() error {
	if c.RecordSize < 1 {
		return fmt.Errorf("pager: record size must be positive, got %d", c.RecordSize)
	}
	if c.PageSize < c.RecordSize {
		return fmt.Errorf("pager: page size %d cannot hold a record of %d bytes", c.PageSize, c.RecordSize)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("pager: max pages must be positive, got %d", c.MaxPages)
	}
	return nil
}

// Pager caches fixed size pages of a file in memory.
//
// Pages are packed with whole records, so on disk a page spans
// (PageSize / RecordSize) * RecordSize bytes and page n starts at n times that span.
// The bytes of a page past its span are never read from or written to the file.
type Pager struct {
	log    logrus.FieldLogger
	config Config
	file   storage.File

	span       int
	fileLength int64
	pages      []*Page
	closed     bool
}

// Open opens the pager over the file at path, creating it when missing.
// The pager owns the file.
func Open(log logrus.FieldLogger, path string, config Config) (*Pager, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	file, err := storage.OpenDbFile(path)
	if err != nil {
		return nil, dberr.IO("unable to open "+path, err)
	}

	p, err := New(log, file, config)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return p, nil
}

// New creates a pager over an already open file. The pager takes ownership of the file
// only when it returns without error.
func New(log logrus.FieldLogger, file storage.File, config Config) (*Pager, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	size, err := file.Size()
	if err != nil {
		return nil, dberr.IO("unable to read file length", err)
	}

	if size%int64(config.RecordSize) != 0 {
		return nil, dberr.Corruption("file length %d is not a multiple of the record size %d", size, config.RecordSize)
	}

	span := (config.PageSize / config.RecordSize) * config.RecordSize
	if size > int64(span)*int64(config.MaxPages) {
		return nil, dberr.Corruption("file length %d exceeds the maximum of %d pages", size, config.MaxPages)
	}

	return &Pager{
		log:        log,
		config:     config,
		file:       file,
		span:       span,
		fileLength: size,
		pages:      make([]*Page, config.MaxPages),
	}, nil
}

// PageSize returns the size of a cached page
func (p *Pager) PageSize() int {
	return p.config.PageSize
}

// MaxPages returns the number of pages the pager can address
func (p *Pager) MaxPages() int {
	return p.config.MaxPages
}

// FileLength is the length of the file in bytes as of the last open or flush
func (p *Pager) FileLength() int64 {
	return p.fileLength
}

func (p *Pager) pageOffset(pageNumber int) int64 {
	return int64(pageNumber) * int64(p.span)
}

// GetPage returns the cached page, loading it from the file on first access
func (p *Pager) GetPage(pageNumber int) (*Page, error) {
	if p.closed {
		return nil, ErrClosed
	}

	if pageNumber < 0 || pageNumber >= p.config.MaxPages {
		return nil, dberr.Capacity(fmt.Sprintf("page [%d] out of bounds", pageNumber))
	}

	if page := p.pages[pageNumber]; page != nil {
		return page, nil
	}

	page := newPage(pageNumber, p.config.PageSize)

	// Pages within the file are read up to the end of the file, the remainder stays zero
	offset := p.pageOffset(pageNumber)
	if offset < p.fileLength {
		n := int64(p.span)
		if remaining := p.fileLength - offset; remaining < n {
			n = remaining
		}

		if _, err := p.file.ReadAt(page.data[:n], offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, dberr.IO(fmt.Sprintf("unable to read page %d", pageNumber), err)
		}

		p.log.Debugf("loaded page %d (%d bytes)", pageNumber, n)
	}

	p.pages[pageNumber] = page

	return page, nil
}

// Flush writes the first bytesToWrite bytes of a cached page to the file
func (p *Pager) Flush(pageNumber int, bytesToWrite int) error {
	if p.closed {
		return ErrClosed
	}

	if pageNumber < 0 || pageNumber >= p.config.MaxPages || p.pages[pageNumber] == nil {
		return fmt.Errorf("flush: page [%d] is not loaded", pageNumber)
	}

	if bytesToWrite < 0 || bytesToWrite > p.span {
		return fmt.Errorf("flush: cannot write %d bytes of page [%d], page spans %d bytes", bytesToWrite, pageNumber, p.span)
	}

	offset := p.pageOffset(pageNumber)
	if _, err := p.file.WriteAt(p.pages[pageNumber].data[:bytesToWrite], offset); err != nil {
		return dberr.IO(fmt.Sprintf("unable to write page %d", pageNumber), err)
	}

	if end := offset + int64(bytesToWrite); end > p.fileLength {
		p.fileLength = end
	}

	p.log.Debugf("flushed page %d (%d bytes)", pageNumber, bytesToWrite)

	return nil
}

// Close flushes every cached page holding data below extent, then releases the file.
// Close is the only point at which cached changes become durable.
func (p *Pager) Close(extent int64) error {
	if p.closed {
		return ErrClosed
	}

	flushErr := p.flushExtent(extent)

	// fsync
	if flushErr == nil {
		if err := p.file.Sync(); err != nil {
			flushErr = dberr.IO("unable to sync file", err)
		}
	}

	closeErr := p.file.Close()

	p.closed = true
	for i := range p.pages {
		p.pages[i] = nil
	}

	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return dberr.IO("unable to close file", closeErr)
	}

	return nil
}

func (p *Pager) flushExtent(extent int64) error {
	for pageNumber, page := range p.pages {
		if page == nil {
			continue
		}

		offset := p.pageOffset(pageNumber)
		if offset >= extent {
			continue
		}

		n := int64(p.span)
		if remaining := extent - offset; remaining < n {
			n = remaining
		}

		if err := p.Flush(pageNumber, int(n)); err != nil {
			return err
		}
	}

	return nil
}
