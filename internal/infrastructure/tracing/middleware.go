package tracing

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Header names for trace propagation. Remote renderers and other clients
// echo them to correlate their own logs.
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// Middleware traces every HTTP request: incoming trace headers are honored
// so a renderer-initiated call joins its caller's trace, and the assigned
// IDs are echoed back on the response.
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := c.GetHeader(HeaderTraceID); traceID != "" {
			ctx = context.WithValue(ctx, traceIDKey, TraceID(traceID))
		}
		if spanID := c.GetHeader(HeaderSpanID); spanID != "" {
			ctx = context.WithValue(ctx, spanIDKey, SpanID(spanID))
		}

		span, ctx := tracer.StartSpan(ctx, c.FullPath())
		span.Tag(zap.String("method", c.Request.Method))
		span.Tag(zap.String("path", c.Request.URL.Path))
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.Status = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		}
		tracer.Finish(span)
	}
}
