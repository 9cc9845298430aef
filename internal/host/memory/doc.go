// Package memory provides the in-process navigation host.
package memory
