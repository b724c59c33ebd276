package tlsio

import (
	"net"
	"strconv"

	"github.com/bifurcation/mint"
	"github.com/brickingsoft/errors"
	"github.com/vlourme/tlsio/pkg/sys"
)

// DefaultChunkSize bounds how much plaintext a single Receive returns. It
// matches the largest TLS record payload, so one full record never needs
// two calls.
const DefaultChunkSize = 16 * 1024

// engine is the protocol surface the session drives. *mint.Conn satisfies
// it; tests substitute scripted engines.
type engine interface {
	Handshake() mint.Alert
	GetHsState() mint.State
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Session is an established TLS session over an accepted non-blocking
// connection. It exclusively owns its protocol engine handle and borrows
// the descriptor; closing the session never closes the socket.
type Session struct {
	eng       engine
	raw       *rawConn
	fd        *sys.Fd
	chunkSize int
	closed    bool
}

// NewSession runs the server handshake on an accepted connection of a
// secure endpoint. Interrupted descriptor operations retry immediately;
// would-block conditions invoke wait once each and retry; anything else
// fails the handshake. A nil wait polls the descriptor directly. On
// failure the engine handle is dropped and only the error escapes.
func NewSession(ep *ListeningEndpoint, fd *sys.Fd, chunkSize int, wait WaitFunc) (*Session, error) {
	if !tlsSupported {
		return nil, errors.From(ErrNotSupported)
	}
	if !ready() {
		return nil, errors.From(ErrNotInitialized)
	}
	if ep == nil || !ep.secure {
		return nil, errors.From(ErrHandshake, errors.WithWrap(errors.New("endpoint is not secure")))
	}
	cert, certErr := ep.cred.certificate()
	if certErr != nil {
		return nil, certErr
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	raw := newRawConn(fd)
	config := &mint.Config{
		Certificates:      []*mint.Certificate{cert},
		RequireClientAuth: ep.opts.MutualTLS,
		NextProtos:        ep.opts.NextProtos,
		NonBlocking:       true,
	}
	s := &Session{
		eng:       mint.NewConn(raw, config, false),
		raw:       raw,
		fd:        fd,
		chunkSize: chunkSize,
	}
	if wait == nil {
		wait = s.defaultWait()
	}
	if err := s.handshake(wait); err != nil {
		s.eng = nil
		return nil, err
	}
	logger.Debug().Str("conn", fd.Name()).Msg("session established")
	return s, nil
}

// handshake alternates engine steps with flushes of the staged outbound
// flight, classifying each would-block read by the errno behind it.
func (s *Session) handshake(wait WaitFunc) error {
	step := func() (bool, error) {
		alert := s.eng.Handshake()
		if err := ioLoop(s.raw.flushOnce, nil, wait); err != nil {
			return false, errors.From(ErrHandshake, errors.WithWrap(err))
		}
		switch alert {
		case mint.AlertNoAlert:
			// a clean step is not completion; the engine reports it after
			// every state transition
			if s.eng.GetHsState() == mint.StateServerConnected {
				return true, nil
			}
			return false, nil
		case mint.AlertWouldBlock:
			return false, s.raw.takeErrno()
		default:
			return false, errors.From(ErrHandshake, errors.WithWrap(alertError(alert)))
		}
	}
	if err := ioLoop(step, nil, wait); err != nil {
		if IsHandshake(err) {
			return err
		}
		return errors.From(ErrHandshake, errors.WithWrap(err))
	}
	return nil
}

// Close sends the closure alert and drops the engine handle. The
// descriptor stays open for the caller to close.
func (s *Session) Close() error {
	if s.closed || s.eng == nil {
		return errors.From(ErrClosed)
	}
	s.closed = true
	closeErr := s.eng.Close()
	flushErr := ioLoop(s.raw.flushOnce, nil, s.defaultWait())
	s.eng = nil
	logger.Debug().Str("conn", s.fd.Name()).Msg("session closed")
	if closeErr != nil {
		return errors.From(ErrIO, errors.WithWrap(closeErr))
	}
	if flushErr != nil {
		return errors.From(ErrIO, errors.WithWrap(flushErr))
	}
	return nil
}

// RemoteAddr is the peer address of the underlying connection.
func (s *Session) RemoteAddr() net.Addr {
	return s.fd.RemoteAddr()
}

// defaultWait polls the descriptor in the direction of the last
// would-block condition.
func (s *Session) defaultWait() WaitFunc {
	return func() {
		if s.raw.wantsWrite() {
			_ = sys.WaitWrite(s.fd.Socket())
			return
		}
		_ = sys.WaitRead(s.fd.Socket())
	}
}

func alertError(alert mint.Alert) error {
	return errors.New("alert " + strconv.Itoa(int(alert)) + ": " + alert.String())
}
