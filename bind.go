package tlsio

import (
	"syscall"

	"github.com/brickingsoft/errors"
	"github.com/vlourme/tlsio/pkg/sys"
)

// listenBacklog is the fixed pending-connection queue depth for every
// endpoint.
const listenBacklog = 150

// Bind creates a plain listening endpoint. Accepted connections carry no
// session; handlers read and write the descriptor directly.
func Bind(address string, port int) (*ListeningEndpoint, error) {
	if !ready() {
		return nil, errors.From(ErrNotInitialized)
	}
	fd, err := listen(address, port)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("addr", fd.Name()).Msg("bound")
	return &ListeningEndpoint{fd: fd}, nil
}

// BindSecure creates a listening endpoint tied to the credential loaded
// from certPath and keyPath, with fresh Diffie-Hellman parameters bound to
// it. The address is the wildcard sentinel "*" or an IP literal; it is
// resolved before any credential file is opened. On any failure past socket
// creation the socket is closed before returning.
func BindSecure(address string, port int, certPath string, keyPath string, options ...Option) (*ListeningEndpoint, error) {
	if !tlsSupported {
		return nil, errors.From(ErrNotSupported)
	}
	if !ready() {
		return nil, errors.From(ErrNotInitialized)
	}
	opts := Options{DHBits: DefaultDHBits}
	for _, option := range options {
		if optErr := option(&opts); optErr != nil {
			return nil, errors.From(ErrBind, errors.WithWrap(optErr))
		}
	}
	fd, err := listen(address, port)
	if err != nil {
		return nil, err
	}
	cred, credErr := LoadCredential(certPath, keyPath)
	if credErr != nil {
		_ = fd.Close()
		return nil, credErr
	}
	if dhErr := cred.GenerateDH(opts.DHBits); dhErr != nil {
		_ = cred.Release()
		_ = fd.Close()
		return nil, dhErr
	}
	logger.Debug().Str("addr", fd.Name()).Str("cert", certPath).Msg("bound secure")
	return &ListeningEndpoint{fd: fd, cred: cred, opts: opts, secure: true}, nil
}

func listen(address string, port int) (*sys.Fd, error) {
	addr, family, ipv6only, addrErr := sys.ResolveBindAddr(address, port)
	if addrErr != nil {
		return nil, errors.From(ErrBind, errors.WithWrap(addrErr))
	}
	sock, sockErr := sys.NewSocket(family, syscall.SOCK_STREAM, syscall.IPPROTO_TCP)
	if sockErr != nil {
		return nil, errors.From(ErrBind, errors.WithWrap(sockErr))
	}
	fd := sys.NewFd("tcp", sock, family, syscall.SOCK_STREAM)
	if ipv6only {
		if err := fd.SetIpv6only(true); err != nil {
			_ = fd.Close()
			return nil, errors.From(ErrBind, errors.WithWrap(err))
		}
	}
	if err := fd.AllowReuseAddr(); err != nil {
		_ = fd.Close()
		return nil, errors.From(ErrBind, errors.WithWrap(err))
	}
	if err := fd.Bind(addr); err != nil {
		_ = fd.Close()
		return nil, errors.From(ErrBind, errors.WithWrap(err))
	}
	if err := fd.Listen(listenBacklog); err != nil {
		_ = fd.Close()
		return nil, errors.From(ErrBind, errors.WithWrap(err))
	}
	if err := fd.LoadLocalAddr(); err != nil {
		fd.SetLocalAddr(addr)
	}
	return fd, nil
}
