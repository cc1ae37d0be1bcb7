package db

import (
	"log/slog"
	"os"

	"icdb/codec"
)

// options holds Open's ambient configuration: page-cache sizing, the
// alignment applied to any schema that doesn't set one explicitly, and
// the logger every component is threaded through.
type options struct {
	pageCacheSize    int64
	defaultAlignment int
	logger           *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithPageCacheSize wraps the host-supplied Store in a ristretto-backed
// CachedStore sized to hold roughly maxPages pages. Zero (the default)
// leaves the Store unwrapped.
func WithPageCacheSize(maxPages int64) Option {
	return func(o *options) { o.pageCacheSize = maxPages }
}

// WithDefaultAlignment sets the alignment applied to any schema in the
// Open call whose Alignment field is left at zero.
func WithDefaultAlignment(alignment int) Option {
	return func(o *options) { o.defaultAlignment = alignment }
}

// WithLogger sets the base logger Database derives its "component"
// sub-loggers from. Defaults to a text handler on os.Stderr at Info
// level when not given.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func defaultOptions() options {
	return options{
		defaultAlignment: codec.DefaultAlignment,
		logger:           slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}
