package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/joeandaverde/tinytable/internal/backend"
	"github.com/joeandaverde/tinytable/internal/server"
)

type ListenCommand struct {
	ShutDownCh <-chan struct{}
}

func (i *ListenCommand) Help() string {
	helpText := `
Usage: tinytable listen [options]

Options:

	-config=""	Database configuration file
	-addr=""	Address to listen on, overrides the config file
`

	return strings.TrimSpace(helpText)
}

func (i *ListenCommand) Synopsis() string {
	return "Accepts client connections to interact with database"
}

func (i *ListenCommand) Run(args []string) int {
	var configPath, addr string

	cmdFlags := flag.NewFlagSet("listen", flag.ContinueOnError)
	cmdFlags.StringVar(&configPath, "config", "", "config file")
	cmdFlags.StringVar(&addr, "addr", "", "listen address")

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	config := defaultConfig()
	if err := loadConfig(configPath, config); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if addr != "" {
		config.Addr = addr
	}
	if config.DataFile == "" {
		_, _ = fmt.Fprintln(os.Stderr, "data_file must be set in the config file")
		return 1
	}

	logger := newLogger(config.LogLevel)

	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		logger.WithError(err).Error("unable to listen")
		return 1
	}

	dbEngine, err := backend.Start(logger, config.engineConfig())
	if err != nil {
		_ = ln.Close()
		logger.WithError(err).Error("unable to start database engine")
		return 1
	}

	dbServer := server.NewServer(logger, config.serverConfig())

	go func() {
		<-i.ShutDownCh
		logger.Info("shutting down")
		if err := dbServer.Shutdown(); err != nil {
			logger.WithError(err).Warn("error closing listener")
		}
	}()

	logger.Infof("listening on %s", ln.Addr())

	exitCode := 0
	if err := dbServer.Serve(ln, dbEngine); err != nil && !errors.Is(err, server.ErrServerClosed) {
		logger.WithError(err).Error("server stopped")
		exitCode = 1
	}

	if err := dbEngine.Close(); err != nil {
		logger.WithError(err).Error("unable to flush database")
		return 1
	}

	return exitCode
}
