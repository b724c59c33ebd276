package tlsio

import (
	"github.com/rs/zerolog"
)

// logger is disabled unless the embedding program installs one. Everything
// emitted through it is debug-grade plumbing detail.
var logger = zerolog.Nop()

// SetLogger installs the zerolog logger used for bind, handshake and record
// events. Pass a disabled logger to silence the package again.
func SetLogger(l zerolog.Logger) {
	logger = l
}
