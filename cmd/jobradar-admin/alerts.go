package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"
)

const defaultAlertCommandTimeout = 2 * time.Minute

func runAlertsList(cmdCtx *commandContext, args []string) (err error) {
	var email string
	var asJSON bool

	fs := flag.NewFlagSet("alerts-list", flag.ContinueOnError)
	fs.StringVar(&email, "email", "", "owner email address (required)")
	fs.BoolVar(&asJSON, "json", false, "print alerts as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if email == "" {
		return errors.New("-email is required")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultAlertCommandTimeout)
	defer cancel()

	deps, err := openAdminDeps(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deps.Close()) }()

	alerts, err := deps.Services.Alerts.List(ctx, email)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(alerts)
	}
	for _, a := range alerts {
		name := ""
		if a.Name != nil {
			name = *a.Name
		}
		state := "active"
		if !a.IsActive {
			state = "inactive"
		}
		if werr := writef(os.Stdout, "#%-6d %-20s %-8s next run %s\n",
			a.ID, name, state, a.NextRunAt.UTC().Format(time.RFC3339)); werr != nil {
			return werr
		}
	}
	return writef(os.Stdout, "%d alerts\n", len(alerts))
}

func runAlertsDelete(cmdCtx *commandContext, args []string) (err error) {
	var id int64
	var email string

	fs := flag.NewFlagSet("alerts-delete", flag.ContinueOnError)
	fs.Int64Var(&id, "id", 0, "alert id (required)")
	fs.StringVar(&email, "email", "", "scope the delete to this owner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id <= 0 {
		return errors.New("-id is required")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultAlertCommandTimeout)
	defer cancel()

	deps, err := openAdminDeps(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deps.Close()) }()

	if err := deps.Services.Alerts.Delete(ctx, id, email); err != nil {
		return err
	}
	cmdCtx.Logger.Info("alert deleted", "alert_id", id)
	return nil
}

func runDueAlerts(cmdCtx *commandContext, args []string) (err error) {
	var limit int

	fs := flag.NewFlagSet("run-due", flag.ContinueOnError)
	fs.IntVar(&limit, "limit", cmdCtx.Config.AlertRunner.BatchLimit, "maximum alerts to process")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultPipelineTimeout)
	defer cancel()

	deps, err := openAdminDeps(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deps.Close()) }()

	summary, err := deps.Services.AlertRunner.RunDueAlertsOnce(ctx, limit)
	if err != nil {
		return err
	}
	return printJSON(summary)
}
