package main

import (
	"context"
	"io"
	"log/slog"
)

// shutdowner abstracts the authenticator so tests can verify cleanup behavior
// without constructing real infrastructure dependencies.
type shutdowner interface {
	Shutdown(context.Context) error
}

// namedCloser labels a resource for shutdown logging.
type namedCloser struct {
	name   string
	closer io.Closer
}

// newCleanup constructs the shutdown hook: drain authenticator state, then
// close the resources in the order given.
func newCleanup(ctx context.Context, authenticator shutdowner, closers ...namedCloser) func() {
	return func() {
		if authenticator != nil {
			if err := authenticator.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down authenticator", "error", err)
			}
		}

		for _, c := range closers {
			if c.closer == nil {
				continue
			}
			if err := c.closer.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close resource", "resource", c.name, "error", err)
			}
		}
	}
}
