package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joeandaverde/tinytable/internal/dberr"
	"github.com/joeandaverde/tinytable/internal/row"
	"github.com/joeandaverde/tinytable/internal/storage"
)

type TableTestSuite struct {
	suite.Suite
	log   *logrus.Logger
	path  string
	table *Table
}

func (s *TableTestSuite) SetupTest() {
	s.log, _ = test.NewNullLogger()
	s.path = filepath.Join(s.T().TempDir(), "test.db")

	tbl, err := Open(s.log, s.path, Options{})
	s.Require().NoError(err)
	s.table = tbl
}

func (s *TableTestSuite) TearDownTest() {
	if !s.table.closed {
		s.NoError(s.table.Close())
	}
}

func TestTableTestSuite(t *testing.T) {
	suite.Run(t, new(TableTestSuite))
}

func userRow(i int) row.Row {
	return row.Row{
		ID:       uint32(i),
		Username: fmt.Sprintf("user%d", i),
		Email:    fmt.Sprintf("user%d@example.com", i),
	}
}

func (s *TableTestSuite) reopen() {
	s.Require().NoError(s.table.Close())

	tbl, err := Open(s.log, s.path, Options{})
	s.Require().NoError(err)
	s.table = tbl
}

func (s *TableTestSuite) TestCapacity() {
	// 13 rows of 293 bytes per 4096 byte page, 100 pages
	s.Equal(1300, s.table.Capacity())
	s.Equal(0, s.table.RowCount())
}

func (s *TableTestSuite) TestRowSlot() {
	tests := []struct {
		rowNumber int
		page      int
		offset    int
	}{
		{0, 0, 0},
		{1, 0, 293},
		{12, 0, 12 * 293},
		{13, 1, 0},
		{27, 2, 293},
		{1299, 99, 12 * 293},
	}

	for _, tt := range tests {
		page, offset := s.table.RowSlot(tt.rowNumber)
		s.Equal(tt.page, page, "row %d", tt.rowNumber)
		s.Equal(tt.offset, offset, "row %d", tt.rowNumber)
	}
}

func (s *TableTestSuite) TestInsert_SelectInOrder() {
	var expected []row.Row
	for i := 1; i <= 40; i++ {
		r := userRow(i)
		expected = append(expected, r)
		s.NoError(s.table.Insert(r))
	}

	rows, err := s.table.SelectAll().Rows()
	s.NoError(err)
	s.Equal(expected, rows)
	s.Equal(40, s.table.RowCount())
}

func (s *TableTestSuite) TestSelectAll_Idempotent() {
	for i := 1; i <= 3; i++ {
		s.NoError(s.table.Insert(userRow(i)))
	}

	first, err := s.table.SelectAll().Rows()
	s.NoError(err)
	second, err := s.table.SelectAll().Rows()
	s.NoError(err)
	s.Equal(first, second)
}

func (s *TableTestSuite) TestSelectAll_Empty() {
	c := s.table.SelectAll()
	s.False(c.Next())
	s.NoError(c.Err())
}

func (s *TableTestSuite) TestInsert_Validation() {
	err := s.table.Insert(row.Row{ID: 0, Username: "a", Email: "b"})
	s.True(errors.Is(err, dberr.ErrValidation))

	err = s.table.Insert(row.Row{ID: 1, Username: strings.Repeat("a", 33), Email: "b"})
	s.True(errors.Is(err, dberr.ErrValidation))

	s.Equal(0, s.table.RowCount())
}

func (s *TableTestSuite) TestInsert_TableFull() {
	for i := 1; i <= 1300; i++ {
		s.Require().NoError(s.table.Insert(userRow(i)))
	}

	err := s.table.Insert(userRow(1301))
	s.True(errors.Is(err, dberr.ErrCapacity))
	s.Equal(MsgTableFull, err.Error())
	s.Equal(1300, s.table.RowCount())

	rows, err := s.table.SelectAll().Rows()
	s.NoError(err)
	s.Len(rows, 1300)
	s.Equal(userRow(1), rows[0])
	s.Equal(userRow(1300), rows[1299])

	// The full table survives a reopen
	s.reopen()
	s.Equal(1300, s.table.RowCount())
	s.True(errors.Is(s.table.Insert(userRow(1301)), dberr.ErrCapacity))
}

func (s *TableTestSuite) TestDurability() {
	r := row.Row{ID: 1, Username: "firstuser", Email: "firstuser@example.com"}
	s.NoError(s.table.Insert(r))

	s.reopen()

	rows, err := s.table.SelectAll().Rows()
	s.NoError(err)
	s.Equal([]row.Row{r}, rows)

	info, err := os.Stat(s.path)
	s.NoError(err)
	s.Equal(int64(row.Size), info.Size())
}

func (s *TableTestSuite) TestDurability_ManyPages() {
	for i := 1; i <= 100; i++ {
		s.NoError(s.table.Insert(userRow(i)))
	}

	s.reopen()
	s.Equal(100, s.table.RowCount())

	// Appending after a reopen continues the partial page
	s.NoError(s.table.Insert(userRow(101)))
	s.reopen()

	rows, err := s.table.SelectAll().Rows()
	s.NoError(err)
	s.Len(rows, 101)
	for i, r := range rows {
		s.Equal(userRow(i+1), r)
	}

	info, err := os.Stat(s.path)
	s.NoError(err)
	s.Equal(int64(101*row.Size), info.Size())
}

func (s *TableTestSuite) TestNotDurableWithoutClose() {
	s.NoError(s.table.Insert(userRow(1)))

	info, err := os.Stat(s.path)
	s.NoError(err)
	s.Equal(int64(0), info.Size())
}

func (s *TableTestSuite) TestEagerFlush() {
	s.NoError(s.table.Close())

	tbl, err := Open(s.log, s.path, Options{EagerFlush: true})
	s.Require().NoError(err)
	s.table = tbl

	s.NoError(s.table.Insert(userRow(1)))
	s.NoError(s.table.Insert(userRow(2)))

	info, err := os.Stat(s.path)
	s.NoError(err)
	s.Equal(int64(2*row.Size), info.Size())
}

func (s *TableTestSuite) TestClosed() {
	s.NoError(s.table.Close())

	s.Equal(ErrClosed, s.table.Insert(userRow(1)))
	s.Equal(ErrClosed, s.table.Close())
}

func TestOpen_Corruption(t *testing.T) {
	log, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, os.WriteFile(path, make([]byte, row.Size+7), 0600))

	_, err := Open(log, path, Options{})
	require.True(t, errors.Is(err, dberr.ErrCorruption))
}

func TestNew_MemoryFile(t *testing.T) {
	assert := require.New(t)
	log, _ := test.NewNullLogger()
	file := storage.NewMemoryFile(nil)

	tbl, err := New(log, file, Options{PageSize: 1024, MaxPages: 2})
	assert.NoError(err)
	// 3 rows per 1024 byte page
	assert.Equal(6, tbl.Capacity())

	for i := 1; i <= 6; i++ {
		assert.NoError(tbl.Insert(userRow(i)))
	}
	assert.True(errors.Is(tbl.Insert(userRow(7)), dberr.ErrCapacity))
	assert.NoError(tbl.Close())

	assert.Len(file.Bytes(), 6*row.Size)

	first, err := row.Deserialize(file.Bytes()[3*row.Size : 4*row.Size])
	assert.NoError(err)
	assert.Equal(userRow(4), first)
}
