// Package http exposes the coordinator's operations over a REST surface:
// page and modal operations, stack inspection and session management.
package http
