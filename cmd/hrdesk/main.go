// cmd/hrdesk/main.go
//
// This is the entry point for the hrdesk CLI.
// Run with no arguments it opens the TUI in the current directory.
// The subcommands in commands.go cover the batch jobs:
//
//	hrdesk export <out.xlsx>
//	hrdesk profile <employee-id> <out.pdf>
//	hrdesk refdata refresh
//	hrdesk api-url <url>

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/hrdesk/internal/config"
	"github.com/kingrea/hrdesk/internal/logging"
	"github.com/kingrea/hrdesk/internal/tui"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		die("getting working directory: %v", err)
	}
	if err := config.InitHRDeskDir(cwd); err != nil {
		die("initializing .hrdesk directory: %v", err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		die("loading config: %v", err)
	}

	logger, err := logging.New(cfg.LogPath())
	if err != nil {
		die("opening log: %v", err)
	}
	defer logger.Close()

	if len(os.Args) > 1 {
		code := runCommand(cfg, logger, os.Args[1:])
		logger.Close()
		os.Exit(code)
	}

	app, err := tui.NewApp(cfg, tui.WithLogger(logger.Zerolog()))
	if err != nil {
		die("starting hrdesk: %v", err)
	}
	logger.Printf("tui started, api %s", cfg.APIBaseURL())

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Errorf(err, "tui exited")
		die("running TUI: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error "+format+"\n", args...)
	os.Exit(1)
}
