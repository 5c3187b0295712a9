package backend

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/row"
	"github.com/joeandaverde/tinytable/internal/table"
)

var ErrEngineClosed = errors.New("engine closed")

// Config describes the configuration for the database
type Config struct {
	Path       string
	PageSize   int
	MaxPages   int
	EagerFlush bool
}

// Engine owns the table for the lifetime of the process.
// Commands are executed one at a time.
type Engine struct {
	sync.Mutex
	log     *logrus.Logger
	config  Config
	table   *table.Table
	backend *Backend
	closed  bool
}

// Start opens the table and returns a running engine
func Start(log *logrus.Logger, config Config) (*Engine, error) {
	log.Infof("Starting database engine [Path: %s]", config.Path)

	if config.PageSize != 0 && config.PageSize < 1024 {
		return nil, errors.New("page size must be greater than or equal to 1024")
	}

	t, err := table.Open(log, config.Path, table.Options{
		PageSize:   config.PageSize,
		MaxPages:   config.MaxPages,
		EagerFlush: config.EagerFlush,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		log:     log,
		config:  config,
		table:   t,
		backend: NewBackend(log, t),
	}, nil
}

// Run prepares and executes a command, calling emit for every selected row
func (e *Engine) Run(command string, emit func(row.Row) error) (StatementType, error) {
	e.Lock()
	defer e.Unlock()

	if e.closed {
		return 0, ErrEngineClosed
	}

	stmt, err := e.backend.Prepare(command)
	if err != nil {
		return 0, err
	}

	result, err := e.backend.Exec(stmt)
	if err != nil {
		return stmt.Type(), err
	}

	if result.Rows == nil {
		return result.Type, nil
	}

	for result.Rows.Next() {
		if err := emit(result.Rows.Row()); err != nil {
			return result.Type, err
		}
	}

	return result.Type, result.Rows.Err()
}

// RowCount is the number of rows in the table
func (e *Engine) RowCount() int {
	e.Lock()
	defer e.Unlock()
	return e.table.RowCount()
}

// Close flushes the table to disk. Changes made since start are lost if Close is not called.
func (e *Engine) Close() error {
	e.Lock()
	defer e.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	e.log.Info("Stopping database engine")

	return e.table.Close()
}
