package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/five82/botdash/internal/app"
)

var version = "dev"

// CLI is the top-level command structure for botdash.
type CLI struct {
	Globals

	Version    kong.VersionFlag `help:"Show version." short:"V"`
	Dashboard  DashboardCmd     `cmd:"" default:"1" help:"Open the interactive dashboard (default)."`
	Status     StatusCmd        `cmd:"" help:"Print bot status and the server list."`
	ClearQueue ClearQueueCmd    `cmd:"" name:"clear-queue" help:"Clear the music queue of one server."`
	Restart    RestartCmd       `cmd:"" help:"Ask the backend to restart the bot."`
}

// Globals are flags shared by every command.
type Globals struct {
	Config   string `help:"Config file path." placeholder:"PATH"`
	Prefs    string `help:"Preferences file path." placeholder:"PATH"`
	LogLevel string `help:"Override the configured log level (trace, debug, info, warn, error)." placeholder:"LEVEL"`
}

func (g *Globals) options(console io.Writer) app.Options {
	return app.Options{
		ConfigPath: g.Config,
		PrefsPath:  g.Prefs,
		LogLevel:   g.LogLevel,
		Console:    console,
	}
}

// DashboardCmd opens the interactive dashboard TUI.
type DashboardCmd struct{}

// Run launches the dashboard. It refuses to start without a terminal.
func (c *DashboardCmd) Run(g *Globals, ctx context.Context) error {
	if !isTerminal(os.Stdout) {
		return errors.New("dashboard requires a terminal (TTY); try 'botdash status'")
	}
	return app.Run(ctx, g.options(nil))
}

// StatusCmd prints a one-shot status summary.
type StatusCmd struct{}

func (c *StatusCmd) Run(g *Globals, ctx context.Context, w io.Writer) error {
	env, err := app.Open(g.options(os.Stderr))
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()
	return env.PrintStatus(ctx, w)
}

// ClearQueueCmd clears one server's music queue.
type ClearQueueCmd struct {
	Guild string `required:"" help:"Server (guild) id." placeholder:"ID"`
}

func (c *ClearQueueCmd) Run(g *Globals, ctx context.Context, w io.Writer) error {
	env, err := app.Open(g.options(os.Stderr))
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()
	return env.ClearQueue(ctx, c.Guild, w)
}

// RestartCmd restarts the bot.
type RestartCmd struct{}

func (c *RestartCmd) Run(g *Globals, ctx context.Context, w io.Writer) error {
	env, err := app.Open(g.options(os.Stderr))
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()
	return env.Restart(ctx, w)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newParser(ctx context.Context, cli *CLI, out io.Writer, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("botdash"),
		kong.Description("Terminal dashboard for a Discord bot backend."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(out, (*io.Writer)(nil)),
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	parser, err := newParser(ctx, &cli, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "botdash: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.FatalIfErrorf(err)
		return 2
	}
	if err := kctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "botdash: %v\n", err)
		return 1
	}
	return 0
}
