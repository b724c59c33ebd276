package tlsio

import (
	"github.com/brickingsoft/errors"
)

type Options struct {
	DHBits     int
	MutualTLS  bool
	NextProtos []string
}

type Option func(options *Options) (err error)

// WithDHBits sets the prime length used when binding fresh Diffie-Hellman
// parameters to the endpoint credential. Default is DefaultDHBits.
func WithDHBits(bits int) Option {
	return func(options *Options) (err error) {
		if bits < minDHBits {
			return errors.New("tlsio: dh prime length is too small")
		}
		options.DHBits = bits
		return
	}
}

// WithMutualTLS makes every handshake demand a client certificate. Off by
// default: connections from plain clients are the common case.
func WithMutualTLS() Option {
	return func(options *Options) (err error) {
		options.MutualTLS = true
		return
	}
}

// WithNextProtos sets the ALPN protocols offered to clients.
func WithNextProtos(protos ...string) Option {
	return func(options *Options) (err error) {
		options.NextProtos = protos
		return
	}
}
