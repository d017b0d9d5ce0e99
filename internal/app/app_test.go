package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/botdash/internal/prefs"
)

type backend struct {
	mu       sync.Mutex
	requests []string
	auth     []string
}

func (b *backend) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.mu.Unlock()

		write := func(v any) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(v)
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/bot/status":
			write(map[string]any{"status": "online", "uptime": 90061000, "guilds": 2, "users": 12345})
		case r.Method == http.MethodGet && r.URL.Path == "/api/discord/guilds":
			write([]map[string]string{{"id": "1", "name": "Alpha"}, {"id": "2", "name": "Beta"}})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/discord/guilds/"):
			write(map[string]any{"name": "Alpha", "memberCount": 10})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/stats"):
			write(map[string]int{"commandsUsed": 1})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/activity"):
			write([]any{})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/music/queue"):
			write(map[string]any{"tracks": []any{}})
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/music/queue"):
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/api/bot/restart":
			write(map[string]bool{"ok": true})
		default:
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		}
	})
}

func (b *backend) seen(req string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r == req {
			return true
		}
	}
	return false
}

func writeConfig(t *testing.T, dir, apiBase string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`api_base = %q
token = "secret"
log_file = %q
log_level = "debug"
`, apiBase, filepath.Join(dir, "state", "botdash.log"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func openTestEnv(t *testing.T) (*Env, *backend, string) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	env, err := Open(Options{ConfigPath: writeConfig(t, dir, srv.URL)})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = env.Close() })
	return env, b, dir
}

func TestOpen_WiresConfigAndLogging(t *testing.T) {
	env, _, dir := openTestEnv(t)

	if env.Config.LogLevel != zerolog.DebugLevel {
		t.Fatalf("log level = %v, want debug", env.Config.LogLevel)
	}
	env.Logger.Info().Msg("hello from test")
	data, err := os.ReadFile(filepath.Join(dir, "state", "botdash.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestOpen_LogLevelOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "http://127.0.0.1:1")

	env, err := Open(Options{ConfigPath: cfgPath, LogLevel: "WARN"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer func() { _ = env.Close() }()
	if env.Config.LogLevel != zerolog.WarnLevel {
		t.Fatalf("log level = %v, want warn", env.Config.LogLevel)
	}

	if _, err := Open(Options{ConfigPath: cfgPath, LogLevel: "loud"}); err == nil {
		t.Fatal("Open accepted an unknown log level")
	}
}

func TestPrintStatus(t *testing.T) {
	env, b, _ := openTestEnv(t)

	var out bytes.Buffer
	if err := env.PrintStatus(context.Background(), &out); err != nil {
		t.Fatalf("PrintStatus returned error: %v", err)
	}
	for _, want := range []string{"Bot:      online", "Uptime:   25h1m1s", "Users:    12,345", "Alpha", "Beta"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, auth := range b.auth {
		if auth != "Bearer secret" {
			t.Fatalf("Authorization = %q, want bearer token", auth)
		}
	}
}

func TestClearQueueAndRestart(t *testing.T) {
	env, b, _ := openTestEnv(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := env.ClearQueue(ctx, " ", &out); err == nil {
		t.Fatal("ClearQueue accepted a blank guild id")
	}
	if err := env.ClearQueue(ctx, "42", &out); err != nil {
		t.Fatalf("ClearQueue returned error: %v", err)
	}
	if !b.seen("DELETE /api/servers/42/music/queue") {
		t.Fatalf("clear request not sent: %v", b.requests)
	}
	if err := env.Restart(ctx, &out); err != nil {
		t.Fatalf("Restart returned error: %v", err)
	}
	if !b.seen("POST /api/bot/restart") {
		t.Fatalf("restart request not sent: %v", b.requests)
	}
	if !strings.Contains(out.String(), "Music queue cleared for 42") || !strings.Contains(out.String(), "Restart requested") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestNewDashboard_RemembersSelection(t *testing.T) {
	env, b, dir := openTestEnv(t)
	prefsPath := filepath.Join(dir, "prefs.toml")

	cache := env.NewCache()
	defer cache.Close()
	d := env.NewDashboard(cache, env.Client, prefsPath, "2")
	d.Start()
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		p, _ := prefs.Load(prefsPath)
		if p.LastGuild == "2" && b.seen("GET /api/servers/2/stats") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("last guild = %q, requests = %v", p.LastGuild, b.requests)
		}
		time.Sleep(5 * time.Millisecond)
	}

	d.Select("1")
	p, err := prefs.Load(prefsPath)
	if err != nil {
		t.Fatalf("load prefs: %v", err)
	}
	if p.LastGuild != "1" {
		t.Fatalf("last guild = %q, want 1", p.LastGuild)
	}
}
