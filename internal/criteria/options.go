package criteria

import (
	"log/slog"

	"github.com/roach88/criteria/internal/queryir"
)

// DefaultParamPrefix prefixes the names of anonymous parameters.
const DefaultParamPrefix = "DN_PARAM_"

// Option configures a Builder.
type Option func(*Builder)

// WithFactory sets the node factory. Tests use it to count constructions.
func WithFactory(f queryir.Factory) Option {
	return func(b *Builder) {
		if f != nil {
			b.factory = f
		}
	}
}

// WithLogger sets the logger for lowering events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithParamPrefix sets the prefix for anonymous parameter names.
func WithParamPrefix(prefix string) Option {
	return func(b *Builder) {
		if prefix != "" {
			b.paramPrefix = prefix
		}
	}
}

// WithSessionID sets the session identifier recorded with compilations.
func WithSessionID(id string) Option {
	return func(b *Builder) {
		if id != "" {
			b.sessionID = id
		}
	}
}

// WithCounter sets the session counter. Replays pass NewCounterAt to
// reproduce generated names.
func WithCounter(c *Counter) Option {
	return func(b *Builder) {
		if c != nil {
			b.counter = c
		}
	}
}
