package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/backend"
	"github.com/joeandaverde/tinytable/internal/dberr"
	"github.com/joeandaverde/tinytable/internal/row"
)

const (
	MsgExecuted = "Executed."

	metaExit = ".exit"
)

// Interpreter executes a line of input and renders the outcome as text
type Interpreter struct {
	engine *backend.Engine
	log    logrus.FieldLogger
}

func NewInterpreter(log logrus.FieldLogger, engine *backend.Engine) *Interpreter {
	return &Interpreter{
		engine: engine,
		log:    log,
	}
}

// Execute runs a single line writing results to w. It reports exit when the line
// asks to end the session. Only failures to write to w are returned; statement
// errors are written to w.
func (i *Interpreter) Execute(line string, w io.Writer) (exit bool, err error) {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, ".") {
		if line == metaExit {
			return true, nil
		}
		_, err := fmt.Fprintf(w, "Unrecognized command '%s'\n", line)
		return false, err
	}

	_, runErr := i.engine.Run(line, func(r row.Row) error {
		_, err := fmt.Fprintln(w, r.String())
		return err
	})
	if runErr != nil {
		return false, i.writeError(w, runErr)
	}

	_, err = fmt.Fprintln(w, MsgExecuted)
	return false, err
}

func (i *Interpreter) writeError(w io.Writer, err error) error {
	var msg string

	switch {
	case errors.Is(err, dberr.ErrValidation):
		msg = err.Error()
	case errors.Is(err, dberr.ErrCapacity):
		msg = "Error: " + err.Error()
	case errors.Is(err, backend.ErrSyntax):
		msg = err.Error()
	case errors.As(err, new(*backend.UnrecognizedStatementError)):
		msg = err.Error()
	default:
		i.log.WithError(err).Error("statement failed")
		msg = "Error: " + err.Error()
	}

	_, werr := fmt.Fprintln(w, msg)
	return werr
}
