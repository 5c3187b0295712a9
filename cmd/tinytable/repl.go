package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/tinytable/internal/backend"
	"github.com/joeandaverde/tinytable/internal/repl"
)

type ReplCommand struct {
	ShutDownCh <-chan struct{}
}

func (i *ReplCommand) Help() string {
	helpText := `
Usage: tinytable repl [options] <db-file>

  Reads commands from standard input:

	insert <id> <username> <email>
	select
	.exit

Options:

	-config=""	Database configuration file
	-eager		Write every insert to disk immediately
`

	return strings.TrimSpace(helpText)
}

func (i *ReplCommand) Synopsis() string {
	return "Runs commands from standard input against a database file"
}

func (i *ReplCommand) Run(args []string) int {
	var configPath string
	var eager bool

	cmdFlags := flag.NewFlagSet("repl", flag.ContinueOnError)
	cmdFlags.StringVar(&configPath, "config", "", "config file")
	cmdFlags.BoolVar(&eager, "eager", false, "flush on every insert")

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	config := defaultConfig()
	// keep the prompt clean unless asked otherwise
	config.LogLevel = logrus.WarnLevel
	if err := loadConfig(configPath, config); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	if cmdFlags.NArg() > 0 {
		config.DataFile = cmdFlags.Arg(0)
	}
	if eager {
		config.EagerFlush = true
	}
	if config.DataFile == "" {
		_, _ = fmt.Fprintln(os.Stderr, "Must supply a database filename.")
		return 1
	}

	logger := newLogger(config.LogLevel)

	dbEngine, err := backend.Start(logger, config.engineConfig())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}

	go func() {
		<-i.ShutDownCh
		if err := dbEngine.Close(); err != nil {
			logger.WithError(err).Error("unable to flush database")
			os.Exit(1)
		}
		os.Exit(130)
	}()

	if err := repl.New(logger, dbEngine, os.Stdin, os.Stdout).Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}

	return 0
}
