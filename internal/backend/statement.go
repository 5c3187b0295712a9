package backend

import (
	"errors"
	"fmt"
	"strings"
)

type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

func (t StatementType) String() string {
	switch t {
	case StatementInsert:
		return "INSERT"
	case StatementSelect:
		return "SELECT"
	default:
		return fmt.Sprintf("StatementType(%d)", int(t))
	}
}

// Statement is a prepared request against the table
type Statement interface {
	Type() StatementType
}

// InsertStatement inserts a row. Fields are validated when executed.
type InsertStatement struct {
	ID       string
	Username string
	Email    string
}

func (InsertStatement) Type() StatementType { return StatementInsert }

// SelectStatement selects every row
type SelectStatement struct{}

func (SelectStatement) Type() StatementType { return StatementSelect }

// ErrSyntax is returned for a statement with the wrong number of arguments
var ErrSyntax = errors.New("Syntax error. Could not parse statement.")

// UnrecognizedStatementError is returned for input that is not a known statement
type UnrecognizedStatementError struct {
	Input string
}

func (e *UnrecognizedStatementError) Error() string {
	return fmt.Sprintf("Unrecognized keyword at start of '%s'.", e.Input)
}

// Prepare parses a line of input into a statement.
//
//	insert <id> <username> <email>
//	select
func Prepare(input string) (Statement, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, &UnrecognizedStatementError{Input: input}
	}

	switch fields[0] {
	case "insert":
		if len(fields) != 4 {
			return nil, ErrSyntax
		}
		return InsertStatement{
			ID:       fields[1],
			Username: fields[2],
			Email:    fields[3],
		}, nil
	case "select":
		if len(fields) != 1 {
			return nil, ErrSyntax
		}
		return SelectStatement{}, nil
	}

	return nil, &UnrecognizedStatementError{Input: input}
}
