package tracing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screenflow/screenflow/internal/infrastructure/logging"
)

// TraceID identifies one request across services.
type TraceID string

// SpanID identifies one operation within a trace.
type SpanID string

// Span is a single timed operation.
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string
	Start    time.Time
	Duration time.Duration
	Status   int
	Err      error

	tags []zap.Field
}

// Tracer collects finished spans and logs them asynchronously, so request
// handling never blocks on trace output.
type Tracer struct {
	service string
	logger  *logging.Logger
	spans   chan *Span
}

// New creates a tracer for the named service.
func New(service string, logger *logging.Logger) *Tracer {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, 256),
	}
	go t.drain()
	return t
}

// StartSpan opens a span under whatever trace ctx already carries; without
// one a fresh trace begins. The returned context carries the new span as
// parent for nested operations.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	if traceID == "" {
		traceID = TraceID(uuid.New().String())
	}
	parentID, _ := ctx.Value(spanIDKey).(SpanID)

	span := &Span{
		TraceID:  traceID,
		SpanID:   SpanID(uuid.New().String()),
		ParentID: parentID,
		Name:     name,
		Start:    time.Now(),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// Tag attaches a structured field to the span.
func (s *Span) Tag(f zap.Field) { s.tags = append(s.tags, f) }

// Finish closes the span and hands it to the tracer. A full buffer drops
// the span rather than stall the caller.
func (t *Tracer) Finish(s *Span) {
	s.Duration = time.Since(s.Start)
	select {
	case t.spans <- s:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(s.TraceID)),
			zap.String("span", s.Name),
		)
	}
}

func (t *Tracer) drain() {
	for s := range t.spans {
		fields := []zap.Field{
			zap.String("trace_id", string(s.TraceID)),
			zap.String("span_id", string(s.SpanID)),
			zap.String("service", t.service),
			zap.Duration("duration", s.Duration),
		}
		if s.ParentID != "" {
			fields = append(fields, zap.String("parent_id", string(s.ParentID)))
		}
		if s.Status != 0 {
			fields = append(fields, zap.Int("status", s.Status))
		}
		fields = append(fields, s.tags...)

		if s.Err != nil {
			t.logger.Error("span "+s.Name, append(fields, zap.Error(s.Err))...)
		} else {
			t.logger.Debug("span "+s.Name, fields...)
		}
	}
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// FromContext returns the trace and span IDs carried by ctx, empty when the
// request is untraced.
func FromContext(ctx context.Context) (TraceID, SpanID) {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	spanID, _ := ctx.Value(spanIDKey).(SpanID)
	return traceID, spanID
}
