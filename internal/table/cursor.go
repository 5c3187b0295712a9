package table

import "github.com/joeandaverde/tinytable/internal/row"

// Cursor walks the rows of a table that existed when the cursor was created.
//
//	c := t.SelectAll()
//	for c.Next() {
//		fmt.Println(c.Row())
//	}
//	if err := c.Err(); err != nil { ... }
type Cursor struct {
	table   *Table
	rowNum  int
	end     int
	current row.Row
	err     error
}

// Next advances to the next row, returning false when no rows remain or on error
func (c *Cursor) Next() bool {
	if c.err != nil || c.rowNum >= c.end {
		return false
	}

	r, err := c.table.readRow(c.rowNum)
	if err != nil {
		c.err = err
		return false
	}

	c.current = r
	c.rowNum++

	return true
}

// Row is the row the cursor is positioned on
func (c *Cursor) Row() row.Row {
	return c.current
}

func (c *Cursor) Err() error {
	return c.err
}

// Rows drains the cursor
func (c *Cursor) Rows() ([]row.Row, error) {
	var rows []row.Row
	for c.Next() {
		rows = append(rows, c.Row())
	}
	return rows, c.Err()
}
