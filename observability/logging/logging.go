package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects the slog handler.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Options configures Setup. Writer defaults to os.Stderr so stdout stays free
// for command output.
type Options struct {
	Service string
	Level   string
	Format  string
	Writer  io.Writer
}

// ParseLevel maps a level name to a slog level. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// ParseFormat validates a format name. An empty name means auto.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatAuto, fmt.Errorf("unknown log format %q", name)
	}
}

// Setup builds the process logger, installs it as the slog default and
// bridges the standard library logger onto it. JSON output renames the
// time, level and message keys and stamps every line with the service name.
// In auto mode text output is used when the writer is a terminal.
func Setup(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if format == FormatAuto {
		format = FormatJSON
		if isTerminal(w) {
			format = FormatText
		}
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == slog.TimeKey {
					return slog.Attr{Key: "timestamp", Value: attr.Value}
				}
				if attr.Key == slog.LevelKey {
					return slog.String("severity", strings.ToUpper(attr.Value.String()))
				}
				if attr.Key == slog.MessageKey {
					return slog.Attr{Key: "message", Value: attr.Value}
				}
				return attr
			},
		})
	}

	handler = handler.WithAttrs([]slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))})

	base := slog.New(handler)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler, slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
