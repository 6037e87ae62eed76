// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// The terminal client: deadline lifecycle against a server with local
// fallback, a live event listener and the pre-alert scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/tomtom215/scadenza/internal/audit"
	"github.com/tomtom215/scadenza/internal/client"
	"github.com/tomtom215/scadenza/internal/config"
	"github.com/tomtom215/scadenza/internal/logging"
	"github.com/tomtom215/scadenza/internal/models"
	"github.com/tomtom215/scadenza/internal/scheduler"
	"github.com/tomtom215/scadenza/internal/store"
)

const usage = `Usage: scadenza-client <command> [flags]

Commands:
  login       -u <user> -p <password> [-remember]   authenticate
  logout                                            drop the session
  list                                              list deadlines
  add         -title <t> -date <yyyy-mm-dd> -time <hh:mm> [flags]
  complete    <id>                                  toggle completed
  delete      <id>                                  delete a deadline
  categories  [-add <name>] [-del <name>]           list or edit categories
  logs        [-clear]                              show the activity log
  watch                                             follow live events and pre-alerts
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
	})

	app, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired client components for command dispatch.
type app struct {
	cfg        *config.Config
	local      *store.BadgerStore
	remote     *client.RemoteStore
	state      *client.AppState
	controller *client.Controller
}

func newApp(cfg *config.Config) (*app, error) {
	statePath := cfg.Client.StatePath
	if statePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve state path: %w", err)
		}
		statePath = filepath.Join(dir, "scadenza")
	}

	local, err := store.Open(statePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	state, err := client.LoadAppState(local)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	var remote *client.RemoteStore
	if cfg.Client.ServerURL != "" {
		remote = client.NewRemoteStore(cfg.Client.ServerURL, cfg.Client.RequestTimeout)
		remote.SetToken(state.Token())
	}

	recorder := audit.NewRecorder(local)
	warn := func(msg string) { fmt.Fprintf(os.Stderr, "warning: %s\n", msg) }
	controller := client.NewController(state, local, remote, recorder, warn)

	return &app{
		cfg:        cfg,
		local:      local,
		remote:     remote,
		state:      state,
		controller: controller,
	}, nil
}

func (a *app) close() {
	if err := a.local.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing local store: %v\n", err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.controller.Logout()
	case "list":
		return a.cmdList(ctx)
	case "add":
		return a.cmdAdd(ctx, args)
	case "complete":
		return a.cmdToggle(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "categories":
		return a.cmdCategories(ctx, args)
	case "logs":
		return a.cmdLogs(ctx, args)
	case "watch":
		return a.cmdWatch(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	remember := fs.Bool("remember", false, "keep cached data on this device after logout")
	local := fs.Bool("local", false, "force local mode even when a server is configured")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return errors.New("both -u and -p are required")
	}

	serverMode := a.remote != nil && !*local
	if err := a.state.SetServerMode(serverMode); err != nil {
		return err
	}
	if err := a.state.SetRememberDevice(*remember); err != nil {
		return err
	}

	user, err := a.controller.Login(ctx, *username, *password)
	if err != nil {
		return err
	}

	mode := "local"
	if a.state.ServerMode() && a.state.Token() != "" {
		mode = "server"
	}
	fmt.Printf("logged in as %s (%s mode)\n", user.Username, mode)
	return nil
}

func (a *app) cmdList(ctx context.Context) error {
	if err := a.controller.Load(ctx); err != nil {
		return err
	}

	deadlines := a.controller.Deadlines()
	if len(deadlines) == 0 {
		fmt.Println("no deadlines")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tPRIORITY\tCATEGORY\tTITLE\tDONE")
	for _, d := range deadlines {
		done := ""
		if d.Completed {
			done = "x"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Date, d.Time, d.Priority, d.Category, d.Title, done)
	}
	return w.Flush()
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "title")
	description := fs.String("desc", "", "description")
	date := fs.String("date", "", "due date (yyyy-mm-dd)")
	timeOfDay := fs.String("time", "09:00", "due time (hh:mm)")
	category := fs.String("category", "", "category name")
	priority := fs.String("priority", string(models.PriorityMedium), "priority (bassa, media, alta)")
	prealert := fs.String("prealert", "", "comma-separated pre-alert thresholds")
	assigned := fs.String("assigned", "", "comma-separated usernames")
	_ = fs.Parse(args)

	created, err := a.controller.CreateDeadline(ctx, &models.Deadline{
		Title:       *title,
		Description: *description,
		Date:        *date,
		Time:        *timeOfDay,
		Category:    *category,
		Priority:    models.Priority(*priority),
		Prealert:    splitList(*prealert),
		AssignedTo:  splitList(*assigned),
	})
	if err != nil {
		return err
	}
	fmt.Printf("created deadline %d: %s %s %q\n", created.ID, created.Date, created.Time, created.Title)
	return nil
}

func (a *app) cmdToggle(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	toggled, err := a.controller.ToggleCompleted(ctx, id)
	if err != nil {
		return err
	}
	if toggled.Completed {
		fmt.Printf("deadline %d marked completed\n", toggled.ID)
	} else {
		fmt.Printf("deadline %d reopened\n", toggled.ID)
	}
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	id, err := argID(args)
	if err != nil {
		return err
	}
	if err := a.controller.DeleteDeadline(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deadline %d deleted\n", id)
	return nil
}

func (a *app) cmdCategories(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	add := fs.String("add", "", "category to create")
	del := fs.String("del", "", "category to delete")
	_ = fs.Parse(args)

	switch {
	case *add != "":
		if err := a.controller.CreateCategory(ctx, *add); err != nil {
			return err
		}
		fmt.Printf("category %q created\n", *add)
		return nil
	case *del != "":
		if err := a.controller.DeleteCategory(ctx, *del); err != nil {
			return err
		}
		fmt.Printf("category %q deleted\n", *del)
		return nil
	}

	if err := a.controller.Load(ctx); err != nil {
		return err
	}
	for _, name := range a.controller.Categories() {
		fmt.Println(name)
	}
	return nil
}

func (a *app) cmdLogs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	clear := fs.Bool("clear", false, "wipe the local activity log")
	_ = fs.Parse(args)

	if *clear {
		if err := a.controller.ClearLogs(ctx); err != nil {
			return err
		}
		fmt.Println("activity log cleared")
		return nil
	}

	logs, err := a.controller.Logs(ctx, 100)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tACTION\tUSER\tDETAILS")
	for _, e := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.User, e.Details)
	}
	return w.Flush()
}

// cmdWatch keeps the projection live and rings the terminal bell on
// pre-alerts and relayed notifications until interrupted.
func (a *app) cmdWatch(ctx context.Context) error {
	if err := a.controller.Load(ctx); err != nil {
		return err
	}

	alert := func(d models.Deadline, threshold string, minutesLeft int) {
		fmt.Printf("\a[pre-alert %s] %q due %s %s (%d minutes left)\n",
			threshold, d.Title, d.Date, d.Time, minutesLeft)
	}
	sched := scheduler.New(a.controller, alert, scheduler.Config{
		Interval:   a.cfg.Scheduler.Interval,
		WidenMatch: a.cfg.Scheduler.WidenMatch,
	})
	go func() { _ = sched.Run(ctx) }()

	if a.state.ServerMode() && a.remote != nil {
		notify := func(n models.Notification) {
			fmt.Printf("\a[%s] %s: %s\n", n.Type, n.Title, n.Message)
		}
		listener := client.NewListener(a.cfg.Client.ServerURL, a.controller, notify)
		err := listener.Run(ctx, a.state.Token())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	<-ctx.Done()
	return nil
}

func argID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one id argument")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
