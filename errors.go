package tlsio

import (
	"github.com/brickingsoft/errors"
)

var (
	// ErrNotSupported is returned by every TLS entry point when the library
	// was built without TLS support.
	ErrNotSupported = errors.Define("tlsio: tls is not supported")
	// ErrNotInitialized is returned when a bind or session entry point is
	// used before Startup.
	ErrNotInitialized = errors.Define("tlsio: not initialized")
	// ErrBind covers address resolution and listening socket failures.
	ErrBind = errors.Define("tlsio: bind failed")
	// ErrCredential covers certificate and key loading failures.
	ErrCredential = errors.Define("tlsio: load credential failed")
	// ErrCrypto covers crypto material generation failures.
	ErrCrypto = errors.Define("tlsio: generate crypto material failed")
	// ErrHandshake covers fatal handshake failures.
	ErrHandshake = errors.Define("tlsio: handshake failed")
	// ErrIO covers fatal record transport failures.
	ErrIO = errors.Define("tlsio: record io failed")
	// ErrReleased is returned when a released credential is used or
	// released again.
	ErrReleased = errors.Define("tlsio: credential was released")
	// ErrClosed is returned when a closed session or endpoint is used.
	ErrClosed = errors.Define("tlsio: closed")
)

func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}

func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

func IsBind(err error) bool {
	return errors.Is(err, ErrBind)
}

func IsCredential(err error) bool {
	return errors.Is(err, ErrCredential)
}

func IsCrypto(err error) bool {
	return errors.Is(err, ErrCrypto)
}

func IsHandshake(err error) bool {
	return errors.Is(err, ErrHandshake)
}

func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

func IsReleased(err error) bool {
	return errors.Is(err, ErrReleased)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
