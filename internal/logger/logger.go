// Package logger is the process-wide structured logger. Lines go to a
// rotated file under <dir>/logs and, for the bot process or in debug mode,
// to stderr as well.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is nil until Init.
var Logger *log.Logger

var discard = log.New(io.Discard)

type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr mirrors lines to stderr outside debug mode.
	Stderr bool
	// JSON switches both outputs to one JSON object per line.
	JSON bool
}

func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "fitbot.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	if cfg.Debug || cfg.Stderr {
		out = io.MultiWriter(os.Stderr, out)
	}

	opts := log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		Prefix:          "fitbot",
	}
	if cfg.Debug {
		opts.Level = log.DebugLevel
	}
	if cfg.JSON {
		opts.Formatter = log.JSONFormatter
	}
	Logger = log.NewWithOptions(out, opts)
	return nil
}

func current() *log.Logger {
	if Logger == nil {
		return discard
	}
	return Logger
}

func Debug(msg string, keyvals ...interface{}) { current().Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { current().Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { current().Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { current().Error(msg, keyvals...) }

// With returns a child logger carrying keyvals, such as a snapshot run_id.
func With(keyvals ...interface{}) *log.Logger {
	return current().With(keyvals...)
}
