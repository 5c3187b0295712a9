package server

import (
	"bufio"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/backend"
	"github.com/joeandaverde/tinytable/internal/repl"
)

// Connection is a client session. Each line received is a command and
// its output is written back before the next line is read.
type Connection struct {
	net.Conn

	id          uuid.UUID
	log         logrus.FieldLogger
	interp      *repl.Interpreter
	maxLineSize int
}

func NewConnection(logger logrus.FieldLogger, engine *backend.Engine, conn net.Conn, maxLineSize int) *Connection {
	id := uuid.New()
	log := logger.WithFields(logrus.Fields{
		"session": id.String(),
		"remote":  conn.RemoteAddr().String(),
	})

	return &Connection{
		Conn:        conn,
		id:          id,
		log:         log,
		interp:      repl.NewInterpreter(log, engine),
		maxLineSize: maxLineSize,
	}
}

// ID identifies the session in logs
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Serve handles commands until the client disconnects, sends .exit or the server shuts down
func (c *Connection) Serve(shutdownCh <-chan struct{}) {
	c.log.Info("client connected")
	defer func() {
		_ = c.Close()
		c.log.Info("client disconnected")
	}()

	output := bufio.NewWriter(c.Conn)
	scanner := bufio.NewScanner(c.Conn)
	scanner.Buffer(make([]byte, 0, 512), c.maxLineSize)

	for scanner.Scan() {
		select {
		case <-shutdownCh:
			return
		default:
		}

		c.log.Debugf("command: %s", scanner.Text())

		exit, err := c.interp.Execute(scanner.Text(), output)
		if err != nil {
			c.log.WithError(err).Error("terminating connection: error writing response")
			return
		}

		if err := output.Flush(); err != nil {
			c.log.WithError(err).Error("terminating connection: error writing response")
			return
		}

		if exit {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.log.WithError(err).Debug("connection error")
	}
}
