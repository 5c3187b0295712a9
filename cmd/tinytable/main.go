package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"
)

func main() {
	args := os.Args[1:]

	commands := map[string]cli.CommandFactory{
		"repl": func() (cli.Command, error) {
			return &ReplCommand{
				ShutDownCh: makeShutdownCh(),
			}, nil
		},
		"listen": func() (cli.Command, error) {
			return &ListenCommand{
				ShutDownCh: makeShutdownCh(),
			}, nil
		},
	}

	// tinytable <db-file> is shorthand for tinytable repl <db-file>
	if len(args) == 0 || (commands[args[0]] == nil && !isHelp(args[0])) {
		args = append([]string{"repl"}, args...)
	}

	tinyCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("tinytable"),
	}

	exitCode, err := tinyCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}

func isHelp(arg string) bool {
	switch arg {
	case "-h", "-help", "--help", "-v", "-version", "--version":
		return true
	}
	return false
}

func makeShutdownCh() <-chan struct{} {
	shutdownCh := make(chan struct{})
	signalCh := make(chan os.Signal, 1)

	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer close(shutdownCh)
		<-signalCh
	}()

	return shutdownCh
}
