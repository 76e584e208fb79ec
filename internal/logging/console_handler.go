package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const consoleTimestampLayout = "2006-01-02 15:04:05"

// consoleHandler renders human-oriented single-line output for interactive
// terminals. JSON output remains the durable machine format.
type consoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level *slog.LevelVar
	attrs []slog.Attr
	group string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Time.In(time.Local).Format(consoleTimestampLayout))
	sb.WriteString(" ")
	sb.WriteString(fmt.Sprintf("%-5s", levelLabel(record.Level)))

	component := ""
	fields := make([]slog.Attr, 0, record.NumAttrs()+len(h.attrs))
	collect := func(attr slog.Attr) {
		if attr.Key == FieldComponent {
			component = attr.Value.String()
			return
		}
		fields = append(fields, attr)
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collect(attr)
		return true
	})

	if component != "" {
		sb.WriteString(" [")
		sb.WriteString(component)
		sb.WriteString("]")
	}
	sb.WriteString(" ")
	sb.WriteString(record.Message)

	for _, attr := range fields {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		sb.WriteString(" ")
		if h.group != "" {
			sb.WriteString(h.group)
			sb.WriteString(".")
		}
		sb.WriteString(attr.Key)
		sb.WriteString("=")
		sb.WriteString(formatValue(attr.Value))
	}
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t") {
			return fmt.Sprintf("%q", s)
		}
		return s
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimestampLayout)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.String()
	}
}
