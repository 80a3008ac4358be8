package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger provides leveled printf-style logging over a slog handler.
type Logger struct {
	sl *slog.Logger
}

// NewLogger creates a console Logger at info level writing to stdout.
func NewLogger() *Logger {
	return NewLoggerWith(os.Stdout, "info", "console")
}

// NewLoggerWith creates a Logger with the given level (debug, info, warn,
// error) and format (console, text, json).
func NewLoggerWith(w io.Writer, level, format string) *Logger {
	lvl := ParseLevel(level)
	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		h = &consoleHandler{w: w, level: lvl, mu: &sync.Mutex{}}
	}
	return &Logger{sl: slog.New(h)}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.sl }

// With returns a Logger that adds attrs to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) logf(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.sl.Enabled(ctx, level) {
		return
	}
	l.sl.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any)  { l.logf(slog.LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(slog.LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.logf(slog.LevelError, format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.logf(slog.LevelDebug, format, args...) }

// consoleHandler renders "[timestamp] LEVEL message k=v" lines with
// coloured level tags.
type consoleHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
	mu    *sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&b, "[%s] %s %s", ts.Format("2006-01-02 15:04:05"), levelTag(r.Level), r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &consoleHandler{w: h.w, level: h.level, attrs: merged, mu: h.mu}
}

func (h *consoleHandler) WithGroup(string) slog.Handler { return h }

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "\033[31mERROR\033[0m"
	case l >= slog.LevelWarn:
		return "\033[33mWARN\033[0m "
	case l >= slog.LevelInfo:
		return "\033[32mINFO\033[0m "
	default:
		return "\033[36mDEBUG\033[0m"
	}
}
