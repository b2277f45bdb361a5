package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// with derives a context logger carrying extra fields.
func with(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	logger := fn(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &logger)
}

// WithSource adds the authority source (loc, oclc) to the logger.
func WithSource(ctx context.Context, source string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("api", source) })
}

// WithRecord adds the catalog record identity to the logger.
func WithRecord(ctx context.Context, bibID, tag string, ord int) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("bib_id", bibID).Str("tag", tag).Int("ord", ord)
	})
}

// WithAuthority adds the authority identifier to the logger.
func WithAuthority(ctx context.Context, authorityID string) context.Context {
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("authority_id", authorityID) })
}

// WithError adds an error to the context logger.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return with(ctx, func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}
