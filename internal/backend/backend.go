package backend

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/dberr"
	"github.com/joeandaverde/tinytable/internal/row"
	"github.com/joeandaverde/tinytable/internal/table"
)

// MsgTableFull is reported when the table cannot take another row
const MsgTableFull = "Table full."

// Backend executes statements against a table. It is not safe for concurrent use.
type Backend struct {
	table *table.Table
	log   logrus.FieldLogger
}

// Result is the outcome of a statement. Rows is set for selects only.
type Result struct {
	Type StatementType
	Rows *table.Cursor
}

func NewBackend(logger logrus.FieldLogger, t *table.Table) *Backend {
	return &Backend{
		table: t,
		log:   logger,
	}
}

// Prepare parses a statement
func (b *Backend) Prepare(command string) (Statement, error) {
	return Prepare(command)
}

// Exec executes a statement
func (b *Backend) Exec(stmt Statement) (*Result, error) {
	switch s := stmt.(type) {
	case InsertStatement:
		if err := b.insert(s); err != nil {
			return nil, err
		}
		return &Result{Type: StatementInsert}, nil
	case SelectStatement:
		return &Result{Type: StatementSelect, Rows: b.table.SelectAll()}, nil
	default:
		return nil, fmt.Errorf("exec: unsupported statement %T", stmt)
	}
}

func (b *Backend) insert(s InsertStatement) error {
	id, err := strconv.ParseInt(s.ID, 10, 64)
	if err != nil || id <= 0 || id > math.MaxUint32 {
		return dberr.Validation(row.MsgInvalidID)
	}

	if len(s.Username) > row.MaxUsernameLen || len(s.Email) > row.MaxEmailLen {
		return dberr.Validation(row.MsgStringTooLong)
	}

	err = b.table.Insert(row.Row{
		ID:       uint32(id),
		Username: s.Username,
		Email:    s.Email,
	})
	if errors.Is(err, dberr.ErrCapacity) {
		b.log.WithError(err).Debug("insert rejected")
		return dberr.Capacity(MsgTableFull)
	}

	return err
}
