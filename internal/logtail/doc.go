// Package logtail feeds the Logs view from botdash's own log file.
//
// The TUI owns the terminal, so botdash logs zerolog JSON to a file instead.
// Read seeks backwards from the end of that file in fixed-size chunks and
// stops once it holds enough lines, so a large log costs no more than its
// tail. Format turns each JSON record into the one-line text
// zerolog.ConsoleWriter prints and keeps the record's level for coloring.
//
// A missing file is not an error: before the first write Read returns no
// lines. Format never fails; lines that are not JSON pass through unchanged.
package logtail
