package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one line per record:
//
//	2025-03-01T10:04:05+01:00 INFO  split-fixer: fix-splits oranges/train: split rewritten written=42
//
// The component and the job/category/split subject move into the line header
// instead of trailing key=value pairs.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool

	groupPrefix string
	header      lineHeader
	fields      []field
}

type lineHeader struct {
	component string
	job       string
	category  string
	split     string
}

// take records header keys and reports whether key belonged to the header.
// The first value seen for a key wins, so outer loggers keep their labels.
func (lh *lineHeader) take(key string, v slog.Value) bool {
	var slot *string
	switch key {
	case FieldComponent:
		slot = &lh.component
	case FieldJob:
		slot = &lh.job
	case FieldCategory:
		slot = &lh.category
	case FieldSplit:
		slot = &lh.split
	default:
		return false
	}
	if *slot == "" {
		*slot = attrString(v)
	}
	return true
}

func (lh lineHeader) subject() string {
	scope := lh.category
	if lh.split != "" {
		if scope != "" {
			scope += "/" + lh.split
		} else {
			scope = lh.split
		}
	}
	switch {
	case lh.job != "" && scope != "":
		return lh.job + " " + scope
	case lh.job != "":
		return lh.job
	default:
		return scope
	}
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	header := h.header
	fields := append(make([]field, 0, len(h.fields)+record.NumAttrs()), h.fields...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = collect(fields, &header, h.groupPrefix, attr)
		return true
	})
	fields = lastValueWins(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.Grow(96 + 24*len(fields))
	b.WriteString(ts.Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if header.component != "" {
		b.WriteString(header.component)
		b.WriteString(": ")
	}
	if subject := header.subject(); subject != "" {
		b.WriteString(subject)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatValue(f.value))
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			b.WriteString(" source=")
			b.WriteString(filepath.Base(src.File))
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(src.Line))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = collect(next.fields, &next.header, h.groupPrefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.fields = append([]field(nil), h.fields...)
	next.groupPrefix = h.groupPrefix + name + "."
	return &next
}

// collect flattens attr into fields, routing top-level header keys into lh.
func collect(fields []field, lh *lineHeader, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return fields
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			fields = collect(fields, lh, inner, member)
		}
		return fields
	}
	if prefix == "" && lh.take(attr.Key, attr.Value) {
		return fields
	}
	key := prefix + attr.Key
	if attr.Key == "" {
		key = strings.TrimSuffix(prefix, ".")
	}
	if key == "" {
		return fields
	}
	return append(fields, field{key: key, value: attr.Value})
}

// lastValueWins keeps the first position of each key with its latest value.
func lastValueWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

// levelLabel pads to a fixed width so messages line up.
func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR "
	case level >= slog.LevelWarn:
		return "WARN  "
	case level >= slog.LevelInfo:
		return "INFO  "
	default:
		return "DEBUG "
	}
}
