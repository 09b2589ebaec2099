package logger

import (
	"context"
	"log/slog"
)

// Reporter receives escalated log records. integration/sentry implements it.
type Reporter interface {
	CaptureException(err error, tags map[string]string, extra map[string]any)
	CaptureMessage(message string, level slog.Level, extra map[string]any)
}

// ReportingHandler forwards every record to the wrapped handler and escalates
// records at slog.LevelWarn and above to a Reporter.
// Records carrying an "error" attribute holding an error are reported as
// exceptions, everything else as messages.
type ReportingHandler struct {
	next     slog.Handler
	reporter Reporter
	attrs    []slog.Attr
	group    string
}

// NewReportingHandler wraps next.
func NewReportingHandler(next slog.Handler, r Reporter) *ReportingHandler {
	return &ReportingHandler{next: next, reporter: r}
}

func (h *ReportingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ReportingHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.next.Handle(ctx, r)
	if r.Level < slog.LevelWarn || h.reporter == nil {
		return err
	}

	extra := make(map[string]any, len(h.attrs)+r.NumAttrs())
	tags := map[string]string{}
	var cause error

	collect := func(a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Key == "" {
			return
		}
		switch a.Key {
		case ErrorKey:
			if e, ok := a.Value.Any().(error); ok {
				cause = e
				return
			}
		case ComponentKey:
			tags[ComponentKey] = a.Value.String()
		}
		extra[a.Key] = a.Value.Any()
	}

	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		collect(a)
		return true
	})

	if cause != nil {
		extra["message"] = r.Message
		h.reporter.CaptureException(cause, tags, extra)
	} else {
		h.reporter.CaptureMessage(r.Message, r.Level, extra)
	}

	return err
}

func (h *ReportingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		merged = append(merged, a)
	}
	return &ReportingHandler{
		next:     h.next.WithAttrs(attrs),
		reporter: h.reporter,
		attrs:    merged,
		group:    h.group,
	}
}

func (h *ReportingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &ReportingHandler{
		next:     h.next.WithGroup(name),
		reporter: h.reporter,
		attrs:    h.attrs,
		group:    group,
	}
}
