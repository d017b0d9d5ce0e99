package logtail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const chunkSize = 32 * 1024

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if maxLines <= 0 {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return splitLines(data), nil
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	// Walk backwards until the tail holds more newlines than wanted lines,
	// which guarantees maxLines complete lines after the first partial one.
	var tail []byte
	newlines := 0
	pos := info.Size()
	for pos > 0 && newlines <= maxLines {
		n := min(int64(chunkSize), pos)
		pos -= n
		block := make([]byte, int(n), int(n)+len(tail))
		if _, err := f.ReadAt(block, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		newlines += bytes.Count(block, []byte{'\n'})
		tail = append(block, tail...)
	}

	lines := splitLines(tail)
	if pos > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

func splitLines(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Line is one log record prepared for display.
type Line struct {
	Level zerolog.Level
	Text  string
}

// Format renders zerolog JSON records as console text. Blank lines are
// dropped and anything that is not a JSON object passes through with NoLevel.
func Format(raw []string) []Line {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	console := zerolog.ConsoleWriter{Out: &buf, NoColor: true, TimeFormat: "2006-01-02 15:04:05"}

	out := make([]Line, 0, len(raw))
	for _, line := range raw {
		record := strings.TrimSpace(line)
		if record == "" {
			continue
		}
		level, isJSON := recordLevel(record)
		text := line
		if isJSON {
			buf.Reset()
			if _, err := console.Write([]byte(record)); err == nil {
				text = strings.TrimRight(buf.String(), "\n")
			}
		}
		out = append(out, Line{Level: level, Text: text})
	}
	return out
}

// recordLevel reports the level of a JSON record and whether line is one.
func recordLevel(line string) (zerolog.Level, bool) {
	if line[0] != '{' {
		return zerolog.NoLevel, false
	}
	var rec struct {
		Level string `json:"level"`
	}
	if json.Unmarshal([]byte(line), &rec) != nil {
		return zerolog.NoLevel, false
	}
	level, err := zerolog.ParseLevel(rec.Level)
	if err != nil {
		return zerolog.NoLevel, true
	}
	return level, true
}
