package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// consoleHandler writes "TS LEVEL component: message key=value" lines.
// Keys ending in _bytes are printed as IEC sizes.
type consoleHandler struct {
	out        *lockedWriter
	level      slog.Leveler
	withSource bool
	component  string
	// group is the dotted key prefix for attributes added after WithGroup.
	group string
	// fields holds attributes from WithAttrs, already rendered.
	fields []byte
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource bool) *consoleHandler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	component := h.component
	var fields []byte
	record.Attrs(func(attr slog.Attr) bool {
		if name, ok := h.componentName(attr); ok {
			if component == "" {
				component = name
			}
			return true
		}
		fields = appendField(fields, h.group, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	line := make([]byte, 0, 128+len(h.fields)+len(fields))
	line = ts.UTC().AppendFormat(line, time.RFC3339)
	line = append(line, ' ')
	line = append(line, levelLabel(record.Level)...)
	line = append(line, ' ')
	if component != "" {
		line = append(line, component...)
		line = append(line, ": "...)
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line = append(line, msg...)
	if h.withSource {
		if src := record.Source(); src != nil {
			line = fmt.Appendf(line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	line = append(line, h.fields...)
	line = append(line, fields...)
	line = append(line, '\n')

	_, err := h.out.Write(line)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		if name, ok := h.componentName(attr); ok {
			if next.component == "" {
				next.component = name
			}
			continue
		}
		next.fields = appendField(next.fields, next.group, attr)
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.group += name + "."
	return next
}

func (h *consoleHandler) clone() *consoleHandler {
	next := *h
	next.fields = append([]byte(nil), h.fields...)
	return &next
}

// componentName reports whether attr is the top-level component tag.
func (h *consoleHandler) componentName(attr slog.Attr) (string, bool) {
	if h.group != "" || attr.Key != FieldComponent {
		return "", false
	}
	return attr.Value.Resolve().String(), true
}

func appendField(dst []byte, group string, attr slog.Attr) []byte {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			group += attr.Key + "."
		}
		for _, member := range value.Group() {
			dst = appendField(dst, group, member)
		}
		return dst
	}
	key := group + attr.Key
	dst = append(dst, ' ')
	dst = append(dst, key...)
	dst = append(dst, '=')
	if strings.HasSuffix(key, "_bytes") {
		return append(dst, formatSize(value)...)
	}
	return append(dst, formatValue(value)...)
}

func formatSize(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		if n := v.Int64(); n >= 0 {
			return strconv.Quote(humanize.IBytes(uint64(n)))
		}
	case slog.KindUint64:
		return strconv.Quote(humanize.IBytes(v.Uint64()))
	}
	return formatValue(v)
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindString, slog.KindAny:
		s := v.String()
		if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			return strconv.Quote(s)
		}
		return s
	default:
		return v.String()
	}
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
