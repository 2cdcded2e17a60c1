package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

// LogOptions configures the process logger.
type LogOptions struct {
	ServiceName string
	Level       slog.Level
	// MaskFields lists attribute keys (case-insensitive) whose values are replaced by "***".
	MaskFields []string
	// Provider, when set, also ships records through the OpenTelemetry log bridge.
	Provider *sdklog.LoggerProvider
}

// NewLogger builds the JSON logger used by the service: renamed time/level keys,
// source trimmed to the internal/ path, correlation id and service attributes,
// and masking of sensitive keys.
func NewLogger(w io.Writer, opts LogOptions) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})

	if opts.Provider != nil {
		handler = &fanoutHandler{handlers: []slog.Handler{
			handler,
			otelslog.NewHandler(opts.ServiceName, otelslog.WithLoggerProvider(opts.Provider)),
		}}
	}

	return slog.New(&contextHandler{
		Handler: &maskHandler{Handler: handler, keys: MaskKeys(opts.MaskFields)},
		service: opts.ServiceName,
	})
}

func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	slog.SetDefault(NewLogger(os.Stdout, LogOptions{
		ServiceName: serviceName,
		Level:       slog.LevelInfo,
		MaskFields:  maskFields,
		Provider:    lp,
	}))
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}
	return a
}

// contextHandler stamps every record with the correlation id and service name.
type contextHandler struct {
	slog.Handler
	service string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	if h.service != "" {
		r.AddAttrs(slog.String("service", h.service))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

// fanoutHandler sends each record to every enabled handler.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: out}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: out}
}

type maskHandler struct {
	slog.Handler
	keys map[string]struct{}
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.Handler.Handle(ctx, r)
	}

	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})
	return h.Handler.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = h.mask(a)
	}
	return &maskHandler{Handler: h.Handler.WithAttrs(cleaned), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{Handler: h.Handler.WithGroup(name), keys: h.keys}
}

func (h *maskHandler) mask(a slog.Attr) slog.Attr {
	if _, hit := h.keys[strings.ToLower(a.Key)]; hit {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = h.mask(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := maskJSON([]byte(a.Value.String()), h.keys); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(MaskValue(v, h.keys))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(MaskValue(m, h.keys))
		case []byte:
			if s, ok := maskJSON(v, h.keys); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}
	return a
}

// MaskKeys normalizes a list of field names into a lookup set.
func MaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return keys
}

// MaskValue walks decoded JSON (maps and slices) and replaces the value of
// every key found in keys.
func MaskValue(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := keys[strings.ToLower(k)]; hit {
				out[k] = masked
				continue
			}
			out[k] = MaskValue(inner, keys)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = MaskValue(inner, keys)
		}
		return out
	default:
		return v
	}
}

func maskJSON(payload []byte, keys map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return "", false
	}

	out, err := json.Marshal(MaskValue(decoded, keys))
	if err != nil {
		return "", false
	}
	return string(out), true
}
