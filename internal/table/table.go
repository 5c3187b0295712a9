package table

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/dberr"
	"github.com/joeandaverde/tinytable/internal/pager"
	"github.com/joeandaverde/tinytable/internal/row"
	"github.com/joeandaverde/tinytable/internal/storage"
)

// MsgTableFull is reported when an insert exceeds the capacity of the table
const MsgTableFull = "Table full"

var ErrClosed = errors.New("table: closed")

// Options configures a table
type Options struct {
	// PageSize defaults to pager.DefaultPageSize
	PageSize int
	// MaxPages defaults to pager.DefaultMaxPages
	MaxPages int
	// EagerFlush writes a row's page to the file on every insert.
	// By default rows are only persisted when the table is closed.
	EagerFlush bool
}

func (o Options) pagerConfig() pager.Config {
	config := pager.Config{
		PageSize:   o.PageSize,
		MaxPages:   o.MaxPages,
		RecordSize: row.Size,
	}
	if config.PageSize == 0 {
		config.PageSize = pager.DefaultPageSize
	}
	if config.MaxPages == 0 {
		config.MaxPages = pager.DefaultMaxPages
	}
	return config
}

// Table stores rows in insertion order. Row n lives in page n / rowsPerPage
// at byte (n % rowsPerPage) * row.Size.
type Table struct {
	log   logrus.FieldLogger
	pager *pager.Pager

	rowCount    int
	rowsPerPage int
	maxRows     int
	eagerFlush  bool
	closed      bool
}

// Open opens the table stored in the file at path
func Open(log logrus.FieldLogger, path string, opts Options) (*Table, error) {
	p, err := pager.Open(log, path, opts.pagerConfig())
	if err != nil {
		return nil, err
	}

	t := newTable(log, p, opts)
	log.Infof("opened table [Path: %s, Rows: %d, Capacity: %d]", path, t.rowCount, t.maxRows)

	return t, nil
}

// New opens a table stored in file
func New(log logrus.FieldLogger, file storage.File, opts Options) (*Table, error) {
	p, err := pager.New(log, file, opts.pagerConfig())
	if err != nil {
		return nil, err
	}

	return newTable(log, p, opts), nil
}

func newTable(log logrus.FieldLogger, p *pager.Pager, opts Options) *Table {
	rowsPerPage := p.PageSize() / row.Size

	return &Table{
		log:         log,
		pager:       p,
		rowCount:    int(p.FileLength() / row.Size),
		rowsPerPage: rowsPerPage,
		maxRows:     rowsPerPage * p.MaxPages(),
		eagerFlush:  opts.EagerFlush,
	}
}

// RowCount is the number of rows in the table
func (t *Table) RowCount() int {
	return t.rowCount
}

// Capacity is the maximum number of rows the table can hold
func (t *Table) Capacity() int {
	return t.maxRows
}

// RowSlot locates a row within the pages of the table
func (t *Table) RowSlot(rowNumber int) (pageNumber int, byteOffset int) {
	pageNumber = rowNumber / t.rowsPerPage
	byteOffset = (rowNumber % t.rowsPerPage) * row.Size
	return pageNumber, byteOffset
}

// Insert appends a row to the table
func (t *Table) Insert(r row.Row) error {
	if t.closed {
		return ErrClosed
	}

	if t.rowCount >= t.maxRows {
		return dberr.Capacity(MsgTableFull)
	}

	if err := r.Validate(); err != nil {
		return err
	}

	pageNumber, offset := t.RowSlot(t.rowCount)
	page, err := t.pager.GetPage(pageNumber)
	if err != nil {
		return err
	}

	slot, err := page.Slice(offset, row.Size)
	if err != nil {
		return err
	}

	if err := row.SerializeInto(slot, r); err != nil {
		return err
	}

	if t.eagerFlush {
		if err := t.pager.Flush(pageNumber, offset+row.Size); err != nil {
			return err
		}
	}

	t.rowCount++

	return nil
}

// SelectAll returns a cursor over every row in insertion order
func (t *Table) SelectAll() *Cursor {
	return &Cursor{
		table: t,
		end:   t.rowCount,
	}
}

func (t *Table) readRow(rowNumber int) (row.Row, error) {
	if t.closed {
		return row.Row{}, ErrClosed
	}

	pageNumber, offset := t.RowSlot(rowNumber)
	page, err := t.pager.GetPage(pageNumber)
	if err != nil {
		return row.Row{}, err
	}

	slot, err := page.Slice(offset, row.Size)
	if err != nil {
		return row.Row{}, err
	}

	r, err := row.Deserialize(slot)
	if err != nil {
		return row.Row{}, fmt.Errorf("row [%d]: %w", rowNumber, err)
	}

	return r, nil
}

// Close persists every row and releases the file
func (t *Table) Close() error {
	if t.closed {
		return ErrClosed
	}
	t.closed = true

	extent := int64(t.rowCount) * row.Size
	if err := t.pager.Close(extent); err != nil {
		t.log.WithError(err).Error("failed to flush table")
		return err
	}

	t.log.Infof("closed table [Rows: %d]", t.rowCount)

	return nil
}
