// Package instance provides single-instance ownership over TCP loopback and
// lets a second invocation delegate work to the resident daemon.
//
// The watch daemon binds the endpoint at startup; a second daemon fails the
// bind and exits, which keeps exactly one upload gate alive per machine. The
// manual upload command uses the client side: when a resident daemon answers,
// the capture is submitted through it (same session, same settings) instead
// of spinning up a second pipeline.
package instance

import "context"

// Request is one delegated upload: the absolute path of the capture to
// submit.
type Request struct {
	Path string
}

// Server owns the loopback endpoint and hands delegated requests to the
// daemon.
type Server interface {
	// Start binds the endpoint. Failing to bind means another instance owns
	// it already.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 before Start.
	Port() int
	// Next blocks for the next delegated request, or returns the ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn is one delegating client: its request plus the response channel back
// to it.
type Conn interface {
	Request() Request
	// RespondSuccess reports the upload outcome text back to the client.
	RespondSuccess(text string) error
	// RespondError reports a failure with a human-readable message.
	RespondError(msg string) error
	Close() error
}

// Client finds a resident daemon and delegates an upload to it.
type Client interface {
	// TryUpload submits the capture at path through a resident daemon.
	// delegated is false when no resident answered; the caller then handles
	// the upload itself.
	TryUpload(ctx context.Context, path string) (delegated bool, text string, err error)
}

// NewServer returns the TCP implementation.
func NewServer() Server { return newTCPServer() }

// NewClient returns the TCP implementation.
func NewClient() Client { return newTCPClient() }
