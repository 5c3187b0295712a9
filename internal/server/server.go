package server

import (
	"errors"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/joeandaverde/tinytable/internal/backend"
)

var ErrServerClosed = errors.New("tinytable: Server closed")

type Server struct {
	config     Config
	shutdownCh chan struct{}
	log        logrus.FieldLogger

	mu       sync.Mutex
	ln       net.Listener
	conns    map[*Connection]struct{}
	wg       sync.WaitGroup
	shutdown sync.Once
}

type Config struct {
	// MaxConnections limits concurrent clients, 0 means unlimited
	MaxConnections int
	// MaxLineSize is the longest command accepted from a client
	MaxLineSize int
}

func NewServer(log logrus.FieldLogger, config Config) *Server {
	if config.MaxLineSize == 0 {
		config.MaxLineSize = 4096
	}

	return &Server{
		config:     config,
		shutdownCh: make(chan struct{}),
		log:        log,
		conns:      make(map[*Connection]struct{}),
	}
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener, engine *backend.Engine) error {
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}

	s.mu.Lock()
	select {
	case <-s.shutdownCh:
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	default:
	}
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()

		// stop accepting connection on shutdown
		select {
		case <-s.shutdownCh:
			if conn != nil {
				_ = conn.Close()
			}
			return ErrServerClosed
		default:
		}

		if err != nil {
			s.log.WithError(err).Error("error accepting new connection")
			// TODO: back off on repeated accept errors instead of spinning
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Temporary() {
				continue
			}
			return err
		}

		// handle the connection
		dbConn := NewConnection(s.log, engine, conn, s.config.MaxLineSize)
		if !s.track(dbConn, true) {
			_ = dbConn.Close()
			return ErrServerClosed
		}
		go func() {
			defer s.wg.Done()
			defer s.track(dbConn, false)
			dbConn.Serve(s.shutdownCh)
		}()
	}
}

// track reports false when adding after shutdown has begun
func (s *Server) track(c *Connection, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !add {
		delete(s.conns, c)
		return true
	}

	select {
	case <-s.shutdownCh:
		return false
	default:
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

// Shutdown stops accepting connections, disconnects clients and waits for
// in flight commands to finish.
func (s *Server) Shutdown() error {
	var err error

	s.shutdown.Do(func() {
		s.mu.Lock()
		close(s.shutdownCh)
		if s.ln != nil {
			err = s.ln.Close()
		}
		for c := range s.conns {
			_ = c.Close()
		}
		s.mu.Unlock()
	})

	s.wg.Wait()

	return err
}
