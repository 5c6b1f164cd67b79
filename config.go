package arena

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pavanmanishd/regionarena/backend"
)

// DefaultMaxChunkSize is the payload size of an ordinary chunk (16 KiB).
// Requests of this size or more get a dedicated chunk.
const DefaultMaxChunkSize = 16 << 10

// DefaultAlignment is the pointer size.
const DefaultAlignment = int(unsafe.Sizeof(uintptr(0)))

// Config holds the settings an arena is built from. The zero value selects
// the defaults.
type Config struct {
	MaxChunkSize int    `toml:"max_chunk_size"`
	Alignment    int    `toml:"alignment"`
	Backend      string `toml:"backend"` // "heap" or "vm"
}

// DefaultConfig returns the settings New uses when no option overrides them.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: DefaultMaxChunkSize,
		Alignment:    DefaultAlignment,
		Backend:      "heap",
	}
}

func (c Config) validate() error {
	switch {
	case c.MaxChunkSize <= 0:
		return errors.WithMessagef(ErrInvalidConfig, "max chunk size %d", c.MaxChunkSize)
	case c.Alignment <= 0 || c.Alignment&(c.Alignment-1) != 0:
		return errors.WithMessagef(ErrInvalidConfig, "alignment %d is not a power of two", c.Alignment)
	case c.Alignment > backend.MinAlignment:
		return errors.WithMessagef(ErrInvalidConfig, "alignment %d exceeds backend alignment %d", c.Alignment, backend.MinAlignment)
	}
	return nil
}

type options struct {
	config  Config
	backend backend.Backend
	log     *logrus.Entry
}

// Option configures an Arena.
type Option func(*options)

// WithConfig replaces every setting with those of cfg. Zero fields keep
// their defaults.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if cfg.MaxChunkSize != 0 {
			o.config.MaxChunkSize = cfg.MaxChunkSize
		}
		if cfg.Alignment != 0 {
			o.config.Alignment = cfg.Alignment
		}
		if cfg.Backend != "" {
			o.config.Backend = cfg.Backend
		}
	}
}

// WithMaxChunkSize sets the payload size of ordinary chunks.
func WithMaxChunkSize(n int) Option {
	return func(o *options) {
		o.config.MaxChunkSize = n
	}
}

// WithAlignment sets the alignment of every small allocation. It must be a
// power of two no larger than backend.MinAlignment.
func WithAlignment(n int) Option {
	return func(o *options) {
		o.config.Alignment = n
	}
}

// WithBackend supplies the memory backend directly, taking precedence over
// Config.Backend.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the logger chunk lifecycle events are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = l.WithField("component", "arena")
	}
}
