package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/botdash/internal/botapi"
	"github.com/five82/botdash/internal/config"
	"github.com/five82/botdash/internal/dashboard"
	"github.com/five82/botdash/internal/logging"
	"github.com/five82/botdash/internal/prefs"
	"github.com/five82/botdash/internal/query"
	"github.com/five82/botdash/internal/state"
	"github.com/five82/botdash/internal/ui"
)

// Options configure the botdash application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/botdash/prefs.toml
	LogLevel   string // overrides log_level from the config when set
	// Console additionally receives human-readable log output. The dashboard
	// leaves it nil because the TUI owns the terminal.
	Console io.Writer
}

// Env holds the dependencies every command shares.
type Env struct {
	Config config.Config
	Logger zerolog.Logger
	Client *botapi.Client

	closer io.Closer
}

// Open loads the configuration, opens the log and builds the API client.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl := strings.TrimSpace(opts.LogLevel); lvl != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(lvl))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.LogLevel = level
	}

	logger, closer, err := logging.New(logging.Options{
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := botapi.NewClient(cfg.APIBase,
		botapi.WithTimeout(cfg.RequestTimeout),
		botapi.WithToken(cfg.Token),
		botapi.WithLogger(logging.Component(logger, "botapi")),
	)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init bot api client: %w", err)
	}

	return &Env{Config: cfg, Logger: logger, Client: client, closer: closer}, nil
}

// Close releases the log file.
func (e *Env) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// NewCache builds the query cache from the configured timings.
func (e *Env) NewCache() *query.Cache {
	cfg := e.Config
	return query.New(
		query.WithStaleTime(cfg.StaleTime),
		query.WithGCTime(cfg.GCTime),
		query.WithRetry(cfg.RetryAttempts, cfg.RetryBase),
		query.WithLogger(logging.Component(e.Logger, "query")),
	)
}

// NewDashboard builds a dashboard over api that restores and remembers the
// last selected server in the preferences at prefsPath.
func (e *Env) NewDashboard(cache *query.Cache, api botapi.API, prefsPath string, preferred string) *dashboard.Dashboard {
	logger := logging.Component(e.Logger, "dashboard")
	return dashboard.New(cache, api, dashboard.Options{
		StatusInterval: e.Config.StatusInterval,
		GuildsInterval: e.Config.GuildsInterval,
		ServerInterval: e.Config.ServerInterval,
		PreferredGuild: preferred,
		Logger:         logger,
		OnSelect: func(sel state.Selection) {
			if !sel.Active() {
				return
			}
			err := prefs.Update(prefsPath, func(p *prefs.Prefs) { p.LastGuild = sel.GuildID })
			if err != nil {
				logger.Warn().Err(err).Str("guild", sel.GuildID).Msg("save last server")
			}
		},
	})
}

// Run boots the botdash TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		env.Logger.Warn().Err(err).Msg("load preferences")
	}

	cache := env.NewCache()
	defer cache.Close()

	d := env.NewDashboard(cache, env.Client, opts.PrefsPath, userPrefs.LastGuild)
	d.Start()
	defer d.Stop()

	env.Logger.Info().
		Str("api", env.Client.BaseURL()).
		Str("last_guild", userPrefs.LastGuild).
		Msg("dashboard started")

	err = ui.Run(ui.Options{
		Context:   ctx,
		Dashboard: d,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		LogPath:   env.Config.LogFile,
		Logger:    logging.Component(env.Logger, "ui"),
	})
	if err != nil {
		env.Logger.Error().Err(err).Msg("ui exited")
		return fmt.Errorf("run ui: %w", err)
	}
	env.Logger.Info().Msg("dashboard stopped")
	return nil
}
