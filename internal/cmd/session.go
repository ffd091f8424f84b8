package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/gnmoseke/peregrine/internal/config"
	"github.com/gnmoseke/peregrine/internal/printing"
)

// commonFlags are the flags shared by every subcommand.
type commonFlags struct {
	packagePath string
	toolchain   string
	plain       bool
	keepLogs    bool
	logLevel    string
	configPath  string
}

func (c *commonFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.packagePath, "package-path", ".", "path to the swift package")
	f.StringVar(&c.toolchain, "toolchain", "", "path to the swift executable to use instead of the one in PATH")
	f.BoolVar(&c.plain, "plain", false, "print plain text symbols instead of Nerd Font icons")
	f.BoolVar(&c.keepLogs, "keep-logs", false, "keep the log file even when the run succeeds")
	f.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn or error (trace is treated as debug)")
	f.StringVar(&c.configPath, "config", "", "path to a configuration file (default <package-path>/"+config.FileName+")")
}

// loadConfig applies the configuration file, if there is one, to the flags
// that were not given on the command line. The file's swift flags are
// returned.
func (c *commonFlags) loadConfig(f *flag.FlagSet) ([]string, error) {
	path, ok := config.Find(c.configPath, c.packagePath)
	if !ok {
		return nil, nil
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := file.Apply(f); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", path, err)
	}
	return file.SwiftFlags, nil
}

// session is the per-invocation state: the log file and the hidden cursor.
type session struct {
	logger   *log.Logger
	logPath  string
	logFile  *os.File
	cursor   *printing.Cursor
	keepLogs bool
}

// parseLevel parses a log level name. "trace" is accepted and maps to the
// most verbose level.
func parseLevel(name string) (log.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "trace" {
		return log.DebugLevel, nil
	}
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// openSession creates the log file in the temporary directory and, when
// out is a terminal, hides the cursor until close is called.
func openSession(ctx context.Context, out io.Writer, c commonFlags) (*session, error) {
	lvl, err := parseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}
	logPath := filepath.Join(os.TempDir(), "peregrine-"+uuid.NewString()+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	logger := log.NewWithOptions(logFile, log.Options{
		Level:           lvl,
		Prefix:          "peregrine",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
	})
	s := &session{
		logger:   logger,
		logPath:  logPath,
		logFile:  logFile,
		keepLogs: c.keepLogs,
	}
	if isTerminal(out) {
		s.cursor = printing.HideCursor(ctx, out, logger)
	}
	logger.Debug("session started", "args", os.Args, "package", c.packagePath)
	return s, nil
}

// close restores the cursor and closes the log file. The log file is
// removed when the invocation succeeded, unless the logs are kept.
func (s *session) close(err error) {
	if s.cursor != nil {
		s.cursor.Restore()
	}
	if err != nil {
		s.logger.Error("invocation failed", "err", err)
	}
	_ = s.logFile.Close()
	if err == nil && !s.keepLogs {
		_ = os.Remove(s.logPath)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
