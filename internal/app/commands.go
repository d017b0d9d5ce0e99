package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrintStatus fetches the bot status and guild list once and writes a
// summary to w.
func (e *Env) PrintStatus(ctx context.Context, w io.Writer) error {
	status, err := e.Client.GetBotStatus(ctx)
	if err != nil {
		return fmt.Errorf("fetch bot status: %w", err)
	}
	guilds, err := e.Client.ListGuilds(ctx)
	if err != nil {
		return fmt.Errorf("list guilds: %w", err)
	}

	state := "offline"
	if status.Online() {
		state = "online"
	}
	fmt.Fprintf(w, "Bot:      %s\n", state)
	fmt.Fprintf(w, "Uptime:   %s\n", status.Uptime().Round(time.Second))
	fmt.Fprintf(w, "Servers:  %s\n", humanize.Comma(int64(status.GuildCount)))
	fmt.Fprintf(w, "Users:    %s\n", humanize.Comma(int64(status.UserCount)))
	for _, g := range guilds {
		fmt.Fprintf(w, "  %-20s %s\n", g.ID, g.Name)
	}
	return nil
}

// ClearQueue empties the music queue of one server.
func (e *Env) ClearQueue(ctx context.Context, guildID string, w io.Writer) error {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return errors.New("guild id is required")
	}
	if err := e.Client.ClearMusicQueue(ctx, guildID); err != nil {
		return fmt.Errorf("clear music queue: %w", err)
	}
	e.Logger.Info().Str("guild", guildID).Msg("music queue cleared")
	fmt.Fprintf(w, "Music queue cleared for %s\n", guildID)
	return nil
}

// Restart asks the backend to restart the bot.
func (e *Env) Restart(ctx context.Context, w io.Writer) error {
	if err := e.Client.RestartBot(ctx); err != nil {
		return fmt.Errorf("restart bot: %w", err)
	}
	e.Logger.Info().Msg("restart requested")
	fmt.Fprintln(w, "Restart requested")
	return nil
}
