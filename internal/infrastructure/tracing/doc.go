// Package tracing correlates work across the HTTP surface, the engine and a
// remote renderer. Requests join an existing trace via the X-Trace-ID and
// X-Span-ID headers or start a new one; finished spans are logged
// asynchronously through the structured logger.
package tracing
