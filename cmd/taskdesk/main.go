package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/octabyte/taskdesk/config"
)

type command struct {
	summary     string
	interactive bool
	run         func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":      {summary: "sign in with email and password", interactive: true, run: runPasswordLogin},
	"otp-login":  {summary: "sign in with a one-time code sent by email", interactive: true, run: runOTPLogin},
	"register":   {summary: "create an account and confirm it with an emailed code", interactive: true, run: runRegister},
	"whoami":     {summary: "show the signed-in user and token expiry", run: runWhoami},
	"logout":     {summary: "sign out and forget the stored session", run: runLogout},
	"tasks":      {summary: "list tasks with stats and a month calendar", run: runTasks},
	"task":       {summary: "add, edit, toggle or remove a task", run: runTask},
	"categories": {summary: "list, add or remove categories", run: runCategories},
	"profile":    {summary: "show or change the profile and password", run: runProfile},
	"serve-fake": {summary: "run the in-memory development backend", run: runServeFake},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskdesk: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	global := flag.NewFlagSet("taskdesk", flag.ContinueOnError)
	configPath := global.String("config", "", "YAML config file (default $"+config.EnvFile+")")
	global.Usage = func() { usage(global.Output()) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(os.Stdout)
		return nil
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, cmd.interactive)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil && returnError == nil {
			returnError = err
		}
	}()

	if cmd.interactive {
		displayAppname(cfg.Env.ServiceName)
	}
	return cmd.run(ctx, a, rest[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: taskdesk [-config file] <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
