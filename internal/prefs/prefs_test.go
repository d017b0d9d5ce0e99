package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name      string
		content   string // empty means no file
		want      Prefs
		wantError bool
	}{
		{name: "missing file", want: Prefs{Theme: defaultTheme}},
		{name: "theme and guild", content: "theme = \"Blurple\"\nlast_guild = \" 42 \"\n", want: Prefs{Theme: "Blurple", LastGuild: "42"}},
		{name: "blank theme", content: "theme = \"  \"\n", want: Prefs{Theme: defaultTheme}},
		{name: "malformed", content: "not valid toml {{{\n", want: Prefs{Theme: defaultTheme}, wantError: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "prefs.toml")
			if tc.content != "" {
				writeFile(t, file, tc.content)
			}
			got, err := Load(file)
			if (err != nil) != tc.wantError {
				t.Fatalf("Load error = %v, wantError %v", err, tc.wantError)
			}
			if got != tc.want {
				t.Fatalf("Load = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLoad_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".config", "botdash", "prefs.toml"), "theme = \"Kanagawa\"\n")

	got, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.Theme != "Kanagawa" {
		t.Fatalf("Theme = %q, want Kanagawa", got.Theme)
	}
}

func TestSave_CreatesDirsAndLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	file := filepath.Join(dir, "prefs.toml")

	if err := Save(file, Prefs{Theme: "Blurple", LastGuild: "9"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := Load(file)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != (Prefs{Theme: "Blurple", LastGuild: "9"}) {
		t.Fatalf("round trip = %+v", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only prefs.toml", len(entries))
	}
}

func TestUpdate(t *testing.T) {
	t.Run("keeps other fields", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "prefs.toml")
		if err := Save(file, Prefs{Theme: "Kanagawa", LastGuild: "1"}); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
		if err := Update(file, func(p *Prefs) { p.LastGuild = "2" }); err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		got, _ := Load(file)
		if got != (Prefs{Theme: "Kanagawa", LastGuild: "2"}) {
			t.Fatalf("prefs = %+v", got)
		}
	})

	t.Run("replaces malformed file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "prefs.toml")
		writeFile(t, file, "{{{")
		if err := Update(file, func(p *Prefs) { p.LastGuild = "7" }); err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		got, err := Load(file)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if got != (Prefs{Theme: defaultTheme, LastGuild: "7"}) {
			t.Fatalf("prefs = %+v", got)
		}
	})
}
