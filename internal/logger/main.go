// Package logger configures the global zerolog logger of the service.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelWriter routes log lines to a writer per level.
// Debug goes with info, fatal and panic go with error. A nil writer drops its lines.
type LevelWriter struct {
	Error io.Writer
	Warn  io.Writer
	Info  io.Writer
	Trace io.Writer
}

// Write implements io.Writer for events written without a level.
func (lw *LevelWriter) Write(p []byte) (int, error) {
	return lw.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	var w io.Writer

	switch {
	case l == zerolog.Disabled:
		return 0, nil
	case l == zerolog.TraceLevel:
		w = lw.Trace
	case l == zerolog.WarnLevel:
		w = lw.Warn
	case l > zerolog.WarnLevel && l != zerolog.NoLevel:
		w = lw.Error
	default:
		w = lw.Info
	}

	if w == nil {
		return len(p), nil
	}

	return w.Write(p) //nolint:wrapcheck
}

// Init configures the global logger from cfg.
// With neither console nor file enabled, nothing is written.
func Init(cfg Log) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("log level %s is not supported", cfg.Level))
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	stack := level == zerolog.TraceLevel
	if stack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
	}

	zerolog.SetGlobalLevel(level)
	zerolog.ErrorHandler = ErrorHandler //nolint:reassign

	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg))
	}

	if cfg.File.Enabled {
		w, errFile := newRollingLevelFiles(cfg.File)
		if errFile != nil {
			return errFile
		}

		writers = append(writers, w)
	}

	with := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(NewPrometheusHook(cfg.ServiceName)).
		With().
		Timestamp().
		Str("app", cfg.AppName)

	if cfg.Env != "" {
		with = with.Str("env", cfg.Env)
	}

	switch {
	case cfg.ReportCaller && stack:
		with = with.Stack().Caller()
	case cfg.ReportCaller:
		with = with.Caller()
	case stack:
		with = with.Stack()
	}

	log.Logger = with.Logger()

	return nil
}

// Rotate returns a lumberjack writer for r inside dir, creating dir when missing.
func Rotate(dir string, r Rotation) (io.Writer, error) {
	if r.Name == "" {
		return nil, ErrFileNameIsEmpty
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd
			return nil, errors.Wrapf(err, "can't create log directory %s", dir)
		}
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, r.Name),
		MaxSize:    r.MaxSize,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
		Compress:   r.Compress,
	}, nil
}

func newRollingLevelFiles(cfg File) (io.Writer, error) {
	var (
		lw  LevelWriter
		err error
	)

	targets := []struct {
		w *io.Writer
		r Rotation
	}{
		{&lw.Error, cfg.Error},
		{&lw.Warn, cfg.Warn},
		{&lw.Info, cfg.Info},
		{&lw.Trace, cfg.Trace},
	}

	for _, t := range targets {
		// levels without a file name are not written to disk
		if t.r.Name == "" {
			continue
		}

		if *t.w, err = Rotate(cfg.Path, t.r); err != nil {
			return nil, err
		}
	}

	return &lw, nil
}

// NewConsoleWriter writes info and debug lines to stdout and everything else to stderr.
func NewConsoleWriter(cfg Log) io.Writer {
	wrap := func(out io.Writer) io.Writer {
		if !cfg.Console.Pretty {
			return out
		}

		return zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	return &LevelWriter{
		Error: wrap(os.Stderr),
		Warn:  wrap(os.Stderr),
		Info:  wrap(os.Stdout),
		Trace: wrap(os.Stderr),
	}
}
