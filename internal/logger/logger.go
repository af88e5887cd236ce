package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats accepted by --log-format and the log_format config key.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatText   = "text"
)

// Logger is the logging interface used by the glb CLI and HTTP API.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	*slog.Logger
}

func New(handler slog.Handler) Logger {
	return SlogLogger{slog.New(handler)}
}

func (l SlogLogger) With(args ...any) Logger {
	return SlogLogger{l.Logger.With(args...)}
}

func (l SlogLogger) WithGroup(name string) Logger {
	return SlogLogger{l.Logger.WithGroup(name)}
}

// NewHandler builds the handler for format. Unknown formats fall back to
// pretty. JSON records carry their source location.
func NewHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case FormatJSON:
		opts.AddSource = true
		return slog.NewJSONHandler(w, opts)
	case FormatText:
		return slog.NewTextHandler(w, opts)
	default:
		return NewPrettyHandler(w, opts)
	}
}

// ForFormat builds a Logger from the --log-format and --log-level values.
func ForFormat(w io.Writer, format, level string) Logger {
	return New(NewHandler(w, format, ParseLevel(level)))
}

// Default writes text records at info level to stderr.
func Default() Logger {
	return ForFormat(os.Stderr, FormatText, "info")
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

type loggerKey struct{}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext retrieves the Logger stored by WithContext, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

// ParseLevel accepts slog level names in any case, with optional offsets
// ("debug", "WARN", "info+2"), plus "warning". Anything else is info.
func ParseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
