// Command jobradar-admin runs one-off operational tasks: migrations, manual
// scans and refreshes, company discovery, and saved-search alert management.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jobradar/jobradar/config"
	"github.com/jobradar/jobradar/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const defaultMigrationTimeout = 5 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"scan": {
			name:        "scan",
			description: "Fetch live postings for the company list without persisting them",
			run:         runScan,
		},
		"refresh": {
			name:        "refresh",
			description: "Fetch live postings for the company list and persist them",
			run:         runRefresh,
		},
		"discover": {
			name:        "discover",
			description: "Search the web for companies hosted on known ATS vendors",
			run:         runDiscover,
		},
		"companies-validate": {
			name:        "companies-validate",
			description: "Parse the company list file and report invalid records",
			run:         runCompaniesValidate,
		},
		"alerts-list": {
			name:        "alerts-list",
			description: "List saved-search alerts for an email address",
			run:         runAlertsList,
		},
		"alerts-delete": {
			name:        "alerts-delete",
			description: "Delete one saved-search alert",
			run:         runAlertsDelete,
		},
		"run-due": {
			name:        "run-due",
			description: "Process due saved-search alerts once and print the summary",
			run:         runDueAlerts,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: jobradar-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-20s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
