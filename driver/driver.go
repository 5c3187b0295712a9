package driver

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/backend"
	"github.com/joeandaverde/tinytable/internal/row"
)

func init() {
	sql.Register("tinytable", &TinyTableDriver{
		engines: make(map[string]*sharedEngine),
	})
}

// ErrTxUnsupported is returned from Begin, the engine has no rollback
var ErrTxUnsupported = errors.New("tinytable: transactions are not supported")

var columns = []string{"id", "username", "email"}

// TinyTableDriver opens connections to a table file. Connections to the same
// file share one engine, which is flushed when the last connection closes.
type TinyTableDriver struct {
	mu      sync.Mutex
	engines map[string]*sharedEngine
}

type sharedEngine struct {
	*backend.Engine
	refs int
}

type TinyTableConnection struct {
	dsn    string
	path   string
	driver *TinyTableDriver
	engine *backend.Engine
}

type TinyTableStmt struct {
	command string
	conn    *TinyTableConnection
}

type TinyTableResult struct {
	rowsAffected int64
}

type TinyTableRows struct {
	rows []row.Row
	pos  int
}

// Open opens a tinytable connection.
//
// The dsn is the path to the table file, optionally followed by parameters:
// /data/users.db?eager_flush=true&log_level=debug
func (d *TinyTableDriver) Open(dsn string) (driver.Conn, error) {
	config, level, err := parseDsn(dsn)
	if err != nil {
		return nil, err
	}

	path, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	shared, ok := d.engines[path]
	if !ok {
		logger := logrus.New()
		logger.SetLevel(level)

		engine, err := backend.Start(logger, config)
		if err != nil {
			return nil, err
		}

		shared = &sharedEngine{Engine: engine}
		d.engines[path] = shared
	}
	shared.refs++

	return &TinyTableConnection{
		dsn:    dsn,
		path:   path,
		driver: d,
		engine: shared.Engine,
	}, nil
}

func (d *TinyTableDriver) release(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	shared, ok := d.engines[path]
	if !ok {
		return nil
	}

	shared.refs--
	if shared.refs > 0 {
		return nil
	}

	delete(d.engines, path)
	return shared.Close()
}

// Prepare prepares a tinytable statement. A "?" in place of an insert
// argument is bound when the statement is executed.
func (c *TinyTableConnection) Prepare(command string) (driver.Stmt, error) {
	if c.engine == nil {
		return nil, driver.ErrBadConn
	}

	return &TinyTableStmt{
		command: command,
		conn:    c,
	}, nil
}

// Begin is not supported
func (c *TinyTableConnection) Begin() (driver.Tx, error) {
	return nil, ErrTxUnsupported
}

// Close closes a tinytable connection
func (c *TinyTableConnection) Close() error {
	if c.engine == nil {
		return nil
	}
	c.engine = nil
	return c.driver.release(c.path)
}

func (c *TinyTableConnection) exec(command string) (driver.Result, error) {
	if c.engine == nil {
		return nil, driver.ErrBadConn
	}

	typ, err := c.engine.Run(command, func(row.Row) error { return nil })
	if err != nil {
		return nil, err
	}

	if typ == backend.StatementInsert {
		return &TinyTableResult{rowsAffected: 1}, nil
	}
	return &TinyTableResult{}, nil
}

func (c *TinyTableConnection) query(command string) (driver.Rows, error) {
	if c.engine == nil {
		return nil, driver.ErrBadConn
	}

	rows := &TinyTableRows{}
	_, err := c.engine.Run(command, func(r row.Row) error {
		rows.rows = append(rows.rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Close closes the statement.
func (c *TinyTableStmt) Close() error {
	return nil
}

// NumInput returns the number of placeholder parameters.
func (c *TinyTableStmt) NumInput() int {
	n := 0
	for _, field := range strings.Fields(c.command) {
		if field == "?" {
			n++
		}
	}
	return n
}

func (c *TinyTableStmt) bind(args []driver.Value) (string, error) {
	if len(args) == 0 {
		return c.command, nil
	}

	fields := strings.Fields(c.command)
	next := 0
	for i, field := range fields {
		if field != "?" {
			continue
		}

		value := fmt.Sprint(args[next])
		if value == "" || strings.ContainsAny(value, " \t\r\n") {
			return "", fmt.Errorf("tinytable: argument %d must be a single non-empty word", next+1)
		}
		fields[i] = value
		next++
	}

	return strings.Join(fields, " "), nil
}

// Exec executes a statement that doesn't return rows
func (c *TinyTableStmt) Exec(args []driver.Value) (driver.Result, error) {
	command, err := c.bind(args)
	if err != nil {
		return nil, err
	}
	return c.conn.exec(command)
}

// Query executes a statement that may return rows
func (c *TinyTableStmt) Query(args []driver.Value) (driver.Rows, error) {
	command, err := c.bind(args)
	if err != nil {
		return nil, err
	}
	return c.conn.query(command)
}

func (r *TinyTableResult) LastInsertId() (int64, error) {
	return 0, errors.New("tinytable: LastInsertId is not supported")
}

func (r *TinyTableResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

// Columns returns the names of the columns
func (r *TinyTableRows) Columns() []string {
	return columns
}

// Close closes the rows iterator.
func (r *TinyTableRows) Close() error {
	return nil
}

// Next populates dest with the next row, io.EOF when there are no more rows
func (r *TinyTableRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}

	current := r.rows[r.pos]
	r.pos++

	dest[0] = int64(current.ID)
	dest[1] = current.Username
	dest[2] = current.Email

	return nil
}

func parseDsn(dsn string) (backend.Config, logrus.Level, error) {
	config := backend.Config{Path: dsn}
	level := logrus.WarnLevel

	pos := strings.IndexRune(dsn, '?')
	if pos >= 1 {
		config.Path = dsn[:pos]
		params, err := url.ParseQuery(dsn[pos+1:])
		if err != nil {
			return config, level, err
		}

		if val := params.Get("page_size"); val != "" {
			iv, err := strconv.ParseInt(val, 10, 32)
			if err != nil {
				return config, level, fmt.Errorf("invalid page_size: %v: %v", val, err)
			}
			config.PageSize = int(iv)
		}

		if val := params.Get("eager_flush"); val != "" {
			eager, err := strconv.ParseBool(val)
			if err != nil {
				return config, level, fmt.Errorf("invalid eager_flush: %v: %v", val, err)
			}
			config.EagerFlush = eager
		}

		if val := params.Get("log_level"); val != "" {
			parsed, err := logrus.ParseLevel(val)
			if err != nil {
				return config, level, fmt.Errorf("invalid log_level: %v: %v", val, err)
			}
			level = parsed
		}
	}

	if config.Path == "" {
		return config, level, errors.New("tinytable: dsn must name a file")
	}

	return config, level, nil
}

var _ driver.Driver = (*TinyTableDriver)(nil)

var _ driver.Conn = (*TinyTableConnection)(nil)

var _ driver.Stmt = (*TinyTableStmt)(nil)

var _ driver.Result = (*TinyTableResult)(nil)

var _ driver.Rows = (*TinyTableRows)(nil)
