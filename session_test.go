package tlsio

import (
	"bytes"
	"io"
	"syscall"
	"testing"

	"github.com/bifurcation/mint"
	"github.com/brickingsoft/errors"
	"github.com/stretchr/testify/require"
	"github.com/vlourme/tlsio/pkg/sys"
)

// scriptEngine stands in for the protocol engine; unset behaviors succeed
// trivially.
type scriptEngine struct {
	handshakeFn func() mint.Alert
	hsStateFn   func() mint.State
	readFn      func(p []byte) (int, error)
	writeFn     func(p []byte) (int, error)
	closeFn     func() error
}

func (se *scriptEngine) Handshake() mint.Alert {
	if se.handshakeFn == nil {
		return mint.AlertNoAlert
	}
	return se.handshakeFn()
}

func (se *scriptEngine) GetHsState() mint.State {
	if se.hsStateFn == nil {
		return mint.StateServerConnected
	}
	return se.hsStateFn()
}

func (se *scriptEngine) Read(p []byte) (int, error) {
	if se.readFn == nil {
		return 0, mint.AlertWouldBlock
	}
	return se.readFn(p)
}

func (se *scriptEngine) Write(p []byte) (int, error) {
	if se.writeFn == nil {
		return len(p), nil
	}
	return se.writeFn(p)
}

func (se *scriptEngine) Close() error {
	if se.closeFn == nil {
		return nil
	}
	return se.closeFn()
}

func testSession(se *scriptEngine) (*Session, *rawConn, *[]byte) {
	rc := testConn()
	wrote := new([]byte)
	rc.writeFn = func(_ int, p []byte) (int, error) {
		*wrote = append(*wrote, p...)
		return len(p), nil
	}
	s := &Session{eng: se, raw: rc, fd: rc.fd, chunkSize: DefaultChunkSize}
	return s, rc, wrote
}

func TestHandshakeRetryClassification(t *testing.T) {
	se := &scriptEngine{}
	s, rc, wrote := testSession(se)

	step := 0
	se.handshakeFn = func() mint.Alert {
		step++
		switch step {
		case 1:
			_, _ = rc.Write([]byte("flight1"))
			rc.readErrno = syscall.EINTR
			return mint.AlertWouldBlock
		case 2:
			rc.readErrno = syscall.EAGAIN
			return mint.AlertWouldBlock
		default:
			_, _ = rc.Write([]byte("flight2"))
			return mint.AlertNoAlert
		}
	}

	waits := 0
	require.NoError(t, s.handshake(func() { waits++ }))
	// the interrupted step retried without suspending; only the
	// would-block step suspended
	require.Equal(t, 1, waits)
	require.Equal(t, 3, step)
	require.Equal(t, "flight1flight2", string(*wrote))
}

func TestHandshakeStepsUntilConnected(t *testing.T) {
	se := &scriptEngine{}
	s, rc, wrote := testSession(se)

	// the engine reports a clean alert after every transition; only the
	// connected state ends the handshake
	step := 0
	se.handshakeFn = func() mint.Alert {
		step++
		if step == 1 {
			_, _ = rc.Write([]byte("flight"))
		}
		return mint.AlertNoAlert
	}
	se.hsStateFn = func() mint.State {
		if step < 4 {
			return mint.StateServerNegotiated
		}
		return mint.StateServerConnected
	}

	require.NoError(t, s.handshake(func() {}))
	require.Equal(t, 4, step)
	require.Equal(t, "flight", string(*wrote))
}

func TestHandshakeFatalAlert(t *testing.T) {
	se := &scriptEngine{handshakeFn: func() mint.Alert {
		return mint.AlertHandshakeFailure
	}}
	s, _, _ := testSession(se)
	err := s.handshake(func() {})
	require.Error(t, err)
	require.True(t, IsHandshake(err))
}

func TestSendChunksAndTickles(t *testing.T) {
	se := &scriptEngine{}
	s, rc, _ := testSession(se)

	// the engine stages what it is handed, like the real one does
	var engineChunks []int
	se.writeFn = func(p []byte) (int, error) {
		engineChunks = append(engineChunks, len(p))
		_, _ = rc.Write(p)
		return len(p), nil
	}

	// the descriptor takes 1000 bytes per write and blocks every 5th one
	var wrote []byte
	calls := 0
	eagains := 0
	rc.writeFn = func(_ int, p []byte) (int, error) {
		calls++
		if calls%5 == 0 {
			eagains++
			return -1, syscall.EAGAIN
		}
		n := len(p)
		if n > 1000 {
			n = 1000
		}
		wrote = append(wrote, p[:n]...)
		return n, nil
	}

	data := bytes.Repeat([]byte{0xA5}, 40000)
	tickles := 0
	waits := 0
	require.NoError(t, s.Send(data, func() { tickles++ }, func() { waits++ }))

	require.Equal(t, []int{sendChunk, sendChunk, sendChunk, sendChunk, 40000 - 4*sendChunk}, engineChunks)
	for _, n := range engineChunks {
		// the engine rejects records at the 16384-byte ceiling once AEAD
		// overhead is added
		require.Less(t, n, DefaultChunkSize)
	}
	require.Equal(t, data, wrote)
	require.Equal(t, eagains, waits)
	require.Positive(t, tickles)
}

func TestSendOnClosedSession(t *testing.T) {
	s, _, _ := testSession(&scriptEngine{})
	s.closed = true
	require.True(t, IsClosed(s.Send([]byte("x"), nil, func() {})))
}

func TestReceiveData(t *testing.T) {
	se := &scriptEngine{readFn: func(p []byte) (int, error) {
		return copy(p, []byte("ping")), nil
	}}
	s, _, _ := testSession(se)
	data, err := s.Receive(func() {})
	require.NoError(t, err)
	require.Equal(t, "ping", string(data))
}

func TestReceiveWaitsOnWouldBlock(t *testing.T) {
	se := &scriptEngine{}
	s, rc, _ := testSession(se)

	step := 0
	se.readFn = func(p []byte) (int, error) {
		step++
		switch step {
		case 1:
			rc.readErrno = syscall.EINTR
			return 0, mint.AlertWouldBlock
		case 2:
			rc.readErrno = syscall.EAGAIN
			return 0, mint.AlertWouldBlock
		default:
			return copy(p, []byte("late")), nil
		}
	}

	waits := 0
	data, err := s.Receive(func() { waits++ })
	require.NoError(t, err)
	require.Equal(t, "late", string(data))
	require.Equal(t, 1, waits)
}

func TestReceiveNeverExceedsChunkSize(t *testing.T) {
	se := &scriptEngine{readFn: func(p []byte) (int, error) {
		return copy(p, bytes.Repeat([]byte{1}, 64)), nil
	}}
	s, _, _ := testSession(se)
	s.chunkSize = 8
	data, err := s.Receive(func() {})
	require.NoError(t, err)
	require.Len(t, data, 8)
}

func TestReceivePeerClosure(t *testing.T) {
	for _, closeErr := range []error{io.EOF, mint.AlertCloseNotify} {
		se := &scriptEngine{readFn: func(_ []byte) (int, error) {
			return 0, closeErr
		}}
		s, _, _ := testSession(se)
		data, err := s.Receive(func() {})
		require.NoError(t, err)
		// closure is a nil slice, never an empty one
		require.Nil(t, data)
	}
}

func TestReceiveZeroReadIsClosure(t *testing.T) {
	se := &scriptEngine{readFn: func(_ []byte) (int, error) {
		return 0, nil
	}}
	s, _, _ := testSession(se)
	data, err := s.Receive(func() {})
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestReceiveFatal(t *testing.T) {
	se := &scriptEngine{readFn: func(_ []byte) (int, error) {
		return 0, errors.New("record mangled")
	}}
	s, _, _ := testSession(se)
	_, err := s.Receive(func() {})
	require.True(t, IsIO(err))
}

func TestCloseDropsEngine(t *testing.T) {
	closed := false
	se := &scriptEngine{}
	s, rc, wrote := testSession(se)
	se.closeFn = func() error {
		closed = true
		_, _ = rc.Write([]byte("close-notify"))
		return nil
	}

	require.NoError(t, s.Close())
	require.True(t, closed)
	require.Equal(t, "close-notify", string(*wrote))
	require.Nil(t, s.eng)
	require.True(t, IsClosed(s.Close()))
	_, err := s.Receive(func() {})
	require.True(t, IsClosed(err))
}

func TestNewSessionGates(t *testing.T) {
	was := initialized.Load()
	defer initialized.Store(was)

	fd := sys.NewFd("tcp", -1, syscall.AF_INET, syscall.SOCK_STREAM)

	initialized.Store(false)
	_, err := NewSession(&ListeningEndpoint{secure: true}, fd, 0, func() {})
	require.True(t, IsNotInitialized(err))

	initialized.Store(true)
	_, err = NewSession(&ListeningEndpoint{}, fd, 0, func() {})
	require.True(t, IsHandshake(err))

	released := &Credential{released: true}
	_, err = NewSession(&ListeningEndpoint{secure: true, cred: released}, fd, 0, func() {})
	require.True(t, IsReleased(err))
}
