package repl

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/backend"
)

const Prompt = "Database > "

// REPL reads commands line by line and writes results after a prompt
type REPL struct {
	engine *backend.Engine
	interp *Interpreter
	log    logrus.FieldLogger
	in     io.Reader
	out    io.Writer
}

func New(log logrus.FieldLogger, engine *backend.Engine, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		engine: engine,
		interp: NewInterpreter(log, engine),
		log:    log,
		in:     in,
		out:    out,
	}
}

// Run processes input until .exit or end of input, then closes the engine
func (r *REPL) Run() error {
	output := bufio.NewWriter(r.out)
	scanner := bufio.NewScanner(r.in)

	runErr := r.loop(scanner, output)

	if err := output.Flush(); err != nil && runErr == nil {
		runErr = err
	}

	if err := r.engine.Close(); err != nil {
		return err
	}

	return runErr
}

func (r *REPL) loop(scanner *bufio.Scanner, output *bufio.Writer) error {
	for {
		if _, err := output.WriteString(Prompt); err != nil {
			return err
		}
		if err := output.Flush(); err != nil {
			return err
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			r.log.Debug("end of input")
			return nil
		}

		exit, err := r.interp.Execute(scanner.Text(), output)
		if err != nil {
			return err
		}
		if exit {
			return nil
		}
	}
}
