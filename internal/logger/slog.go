package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"
)

// Logger over slog handler
// Records are built here, so the source points to the code that called Info or others
type slogLogger struct {
	handler slog.Handler
}

func newSlogLogger(w io.Writer, format string, level string) (*slogLogger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   true,
		ReplaceAttr: trimSource,
	}

	switch format {
	case formatText:
		return &slogLogger{handler: slog.NewTextHandler(w, opts)}, nil
	case formatJSON:
		return &slogLogger{handler: slog.NewJSONHandler(w, opts)}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func (l *slogLogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level) {
		return
	}

	// Skip runtime.Callers, log and the level method
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.handler.Handle(ctx, r)
}

func (l *slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *slogLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return l
	}
	// slog.Logger turns loose key-value pairs into attrs the same way Record.Add does
	return &slogLogger{handler: slog.New(l.handler).With(args...).Handler()}
}

func (l *slogLogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return &slogLogger{handler: l.handler.WithGroup(name)}
}

// Level names are case insensitive: "debug", "INFO" and so on
func parseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown logging level %q", level)
	}
	return lvl, nil
}

// Keep only file name of the source
func trimSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if source, ok := a.Value.Any().(*slog.Source); ok {
		source.File = filepath.Base(source.File)
	}
	return a
}
