package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botdash.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func numbered(from, to int) []string {
	var lines []string
	for i := from; i <= to; i++ {
		lines = append(lines, fmt.Sprintf("record %d", i))
	}
	return lines
}

func TestRead_Tail(t *testing.T) {
	all := numbered(1, 10)
	path := writeLog(t, strings.Join(all, "\n")+"\n")

	for _, tc := range []struct {
		maxLines int
		want     []string
	}{
		{0, all},
		{-3, all},
		{1, all[9:]},
		{4, all[6:]},
		{10, all},
		{25, all},
	} {
		t.Run(fmt.Sprint(tc.maxLines), func(t *testing.T) {
			got, err := Read(path, tc.maxLines)
			if err != nil {
				t.Fatalf("Read error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Read(%d) = %v, want %v", tc.maxLines, got, tc.want)
			}
		})
	}
}

func TestRead_SpansChunks(t *testing.T) {
	long := strings.Repeat("x", chunkSize/3)
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("%02d %s", i, long))
	}
	path := writeLog(t, strings.Join(lines, "\n")+"\n")

	got, err := Read(path, 5)
	if err != nil {
		t.Fatalf("Read error = %v", err)
	}
	if !reflect.DeepEqual(got, lines[7:]) {
		t.Fatalf("Read returned %d lines, want lines 07..11", len(got))
	}
}

func TestRead_UnterminatedLastLine(t *testing.T) {
	path := writeLog(t, "a\r\nb\nc")

	got, err := Read(path, 2)
	if err != nil {
		t.Fatalf("Read error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Read = %q, want [b c]", got)
	}
}

func TestRead_MissingAndEmpty(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("missing file: Read = %v, %v; want nil, nil", lines, err)
	}
	lines, err = Read(writeLog(t, ""), 10)
	if err != nil || lines != nil {
		t.Fatalf("empty file: Read = %v, %v; want nil, nil", lines, err)
	}
}

func TestFormat_ZerologRecords(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf).With().Timestamp().Logger()
	logger.Info().Str("guild", "1").Msg("selection updated")
	logger.Warn().Str("key", "[bot status]").Msg("fetch failed")

	raw := strings.Split(strings.TrimSpace(buf.String()), "\n")
	raw = append(raw, "plain text line", "   ", "{not json")

	got := Format(raw)
	if len(got) != 4 {
		t.Fatalf("Format returned %d lines, want 4: %#v", len(got), got)
	}

	if got[0].Level != zerolog.InfoLevel {
		t.Errorf("line 0 level = %v, want info", got[0].Level)
	}
	for _, want := range []string{"INF", "selection updated", "guild=1"} {
		if !strings.Contains(got[0].Text, want) {
			t.Errorf("line 0 = %q, missing %q", got[0].Text, want)
		}
	}
	if strings.Contains(got[0].Text, "{") {
		t.Errorf("line 0 = %q, want console text", got[0].Text)
	}
	if got[1].Level != zerolog.WarnLevel || !strings.Contains(got[1].Text, "WRN") {
		t.Errorf("line 1 = %+v, want a WRN line", got[1])
	}
	for i, want := range []string{"plain text line", "{not json"} {
		if l := got[2+i]; l.Level != zerolog.NoLevel || l.Text != want {
			t.Errorf("line %d = %+v, want passthrough of %q", 2+i, l, want)
		}
	}
}

func TestFormat_Empty(t *testing.T) {
	if got := Format(nil); got != nil {
		t.Fatalf("Format(nil) = %v, want nil", got)
	}
}
