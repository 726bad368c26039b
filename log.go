package amqp

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Str("component", "amqp").Logger()
	logger.Store(&l)
}

// SetLogger replaces the logger used by this package and its transports.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// Logger returns the logger used by this package and its transports.
func Logger() *zerolog.Logger {
	return logger.Load()
}
