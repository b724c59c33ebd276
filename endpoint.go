package tlsio

import (
	"net"

	"github.com/brickingsoft/errors"
	"github.com/vlourme/tlsio/pkg/sys"
)

// ListeningEndpoint is a bound and listening socket, optionally tied to the
// credential it serves TLS with. The socket itself outlives Teardown: the
// accept loop owns it and closes it when serving stops.
type ListeningEndpoint struct {
	fd       *sys.Fd
	cred     *Credential
	opts     Options
	secure   bool
	tornDown bool
}

// Addr is the effective local address, useful after binding port 0.
func (ep *ListeningEndpoint) Addr() net.Addr {
	return ep.fd.LocalAddr()
}

// Fd exposes the listening descriptor for external readiness loops.
func (ep *ListeningEndpoint) Fd() *sys.Fd {
	return ep.fd
}

// Secure reports whether sessions are established on accepted connections.
func (ep *ListeningEndpoint) Secure() bool {
	return ep.secure
}

// Credential returns the credential bound by BindSecure, nil for plain
// endpoints.
func (ep *ListeningEndpoint) Credential() *Credential {
	return ep.cred
}

// Teardown releases the endpoint's credential material. The listening
// socket is deliberately left open; close it through CloseSocket once the
// accept loop is done with it.
func (ep *ListeningEndpoint) Teardown() error {
	if ep.tornDown {
		return errors.From(ErrClosed)
	}
	ep.tornDown = true
	if ep.cred != nil {
		if err := ep.cred.Release(); err != nil {
			return err
		}
	}
	logger.Debug().Str("addr", ep.fd.Name()).Msg("endpoint torn down")
	return nil
}

// CloseSocket closes the listening descriptor.
func (ep *ListeningEndpoint) CloseSocket() error {
	return ep.fd.Close()
}
