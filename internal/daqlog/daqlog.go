// Package daqlog provides the acquisition pipeline's two logging
// surfaces: a structured console/file logger for operational events,
// and a daily-rotating CSV sink for ProcessInfo snapshots, grounded on
// the same daily-file-naming idiom the teacher uses for its own
// received-packet log.
package daqlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// New returns a structured logger writing to w at the given level
// ("debug", "info", "warn", "error"). An unrecognized level falls back
// to info.
func New(w *os.File, level string) *charmlog.Logger {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	logger.SetLevel(parseLevel(level))
	return logger
}

func parseLevel(level string) charmlog.Level {
	switch level {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// DailyCSVSink appends rows of comma-separated values to a directory of
// daily-named files, opening a new file (with a header row, written
// once per file) whenever the UTC date rolls over. The zero value is
// not usable; construct with NewDailyCSVSink.
type DailyCSVSink struct {
	dir      string
	pattern  *strftime.Strftime
	header   []string
	openName string
	file     *os.File
	writer   *csv.Writer
}

// NewDailyCSVSink prepares a sink writing into dir, creating dir if it
// does not already exist. header is written once as the first line of
// every new daily file.
func NewDailyCSVSink(dir string, header []string) (*DailyCSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("daqlog: creating log directory %q: %w", dir, err)
	}
	pattern, err := strftime.New("%Y-%m-%d.csv")
	if err != nil {
		return nil, fmt.Errorf("daqlog: compiling daily filename pattern: %w", err)
	}
	return &DailyCSVSink{dir: dir, pattern: pattern, header: header}, nil
}

// Write appends one row, rotating to a new daily file first if the date
// has changed since the currently open file was created.
func (s *DailyCSVSink) Write(row []string) error {
	name := s.pattern.FormatString(time.Now().UTC())
	if s.file != nil && name != s.openName {
		s.Close()
	}
	if s.file == nil {
		if err := s.open(name); err != nil {
			return err
		}
	}
	s.writer.Write(row)
	s.writer.Flush()
	return s.writer.Error()
}

func (s *DailyCSVSink) open(name string) error {
	full := filepath.Join(s.dir, name)
	_, statErr := os.Stat(full)
	alreadyThere := statErr == nil

	f, err := os.OpenFile(full, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("daqlog: opening %q: %w", full, err)
	}
	s.file = f
	s.openName = name
	s.writer = csv.NewWriter(f)

	if !alreadyThere && len(s.header) > 0 {
		s.writer.Write(s.header)
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the currently open file, if any.
func (s *DailyCSVSink) Close() error {
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := s.file.Close()
	s.file, s.writer, s.openName = nil, nil, ""
	return err
}
