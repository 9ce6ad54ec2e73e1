package logger

import (
	"context"
	"errors"
	log "log/slog"
)

// redactedKeys 聊天正文与请求体不上报到远端
var redactedKeys = map[string]struct{}{
	"req_body": {},
	"res_body": {},
	"content":  {},
}

const redacted = "[redacted]"

// TeeHandler 将日志分发到多个 Handler，每个 Handler 按自身级别过滤
type TeeHandler struct {
	handlers []log.Handler
}

func (s *TeeHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range s.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s *TeeHandler) Handle(ctx context.Context, r log.Record) error {
	var errs []error
	for _, h := range s.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *TeeHandler) WithAttrs(attrs []log.Attr) log.Handler {
	newHandlers := make([]log.Handler, len(s.handlers))
	for i, h := range s.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: newHandlers}
}

func (s *TeeHandler) WithGroup(name string) log.Handler {
	newHandlers := make([]log.Handler, len(s.handlers))
	for i, h := range s.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: newHandlers}
}

// RemoteHandler 只上报带 trace_id 的日志，并抹掉消息正文
type RemoteHandler struct {
	next log.Handler
}

func NewRemoteHandler(next log.Handler) *RemoteHandler {
	return &RemoteHandler{next: next}
}

func (s *RemoteHandler) Enabled(ctx context.Context, level log.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s *RemoteHandler) Handle(ctx context.Context, r log.Record) error {
	hasTraceID := false
	attrs := make([]log.Attr, 0, r.NumAttrs())
	r.Attrs(func(a log.Attr) bool {
		if a.Key == TraceIDKey && a.Value.String() != "" {
			hasTraceID = true
		}
		attrs = append(attrs, redact(a))
		return true
	})
	if !hasTraceID {
		return nil
	}

	out := log.NewRecord(r.Time, r.Level, r.Message, r.PC)
	out.AddAttrs(attrs...)
	return s.next.Handle(ctx, out)
}

func (s *RemoteHandler) WithAttrs(attrs []log.Attr) log.Handler {
	cleaned := make([]log.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = redact(a)
	}
	return &RemoteHandler{next: s.next.WithAttrs(cleaned)}
}

func (s *RemoteHandler) WithGroup(name string) log.Handler {
	return &RemoteHandler{next: s.next.WithGroup(name)}
}

func redact(a log.Attr) log.Attr {
	if _, ok := redactedKeys[a.Key]; ok {
		return log.String(a.Key, redacted)
	}
	if a.Value.Kind() == log.KindGroup {
		group := a.Value.Group()
		cleaned := make([]any, len(group))
		for i, g := range group {
			cleaned[i] = redact(g)
		}
		return log.Group(a.Key, cleaned...)
	}
	return a
}
