// Package resilience provides a circuit breaker for unreliable dependencies.
//
// The renderer connection is the main consumer: a renderer that stops
// acknowledging commands would otherwise make every navigation operation
// wait out its full timeout. The breaker trips after a run of consecutive
// failures, rejects calls immediately while open, and probes its way back
// to closed once the cooldown elapses.
package resilience
