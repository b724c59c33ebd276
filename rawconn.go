package tlsio

import (
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/bifurcation/mint"
	"github.com/brickingsoft/errors"
	"github.com/vlourme/tlsio/pkg/sys"
	"golang.org/x/sys/unix"
)

// rawConn bridges the protocol engine to a borrowed non-blocking socket.
//
// Reads go straight to the descriptor. A would-block or interrupted read is
// reported to the engine as mint.AlertWouldBlock while the real errno is
// recorded for the retry loop to classify afterwards.
//
// Writes never touch the descriptor: the engine's records are staged in an
// outbound buffer, so the engine never observes a partial write. The
// session flushes the stage one write at a time and sees every
// partial-progress and would-block condition itself.
//
// The descriptor is borrowed, never owned: Close is a no-op and the caller
// keeps the responsibility of closing the accepted connection.
type rawConn struct {
	fd      *sys.Fd
	readFn  func(sock int, p []byte) (int, error)
	writeFn func(sock int, p []byte) (int, error)

	readErrno syscall.Errno // errno behind the last would-block read
	wantWrite bool          // last block was on the write side
	staged    []byte
}

func newRawConn(fd *sys.Fd) *rawConn {
	return &rawConn{
		fd:        fd,
		readFn:    unix.Read,
		writeFn:   unix.Write,
		readErrno: syscall.EAGAIN,
	}
}

func (rc *rawConn) Read(p []byte) (int, error) {
	n, err := rc.readFn(rc.fd.Socket(), p)
	if err != nil {
		if errors.Is(err, syscall.EINTR) {
			rc.readErrno = syscall.EINTR
			return 0, mint.AlertWouldBlock
		}
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			rc.readErrno = syscall.EAGAIN
			rc.wantWrite = false
			return 0, mint.AlertWouldBlock
		}
		return 0, os.NewSyscallError("read", err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// takeErrno returns the errno behind the last would-block read and resets
// it, so a stale interruption is never classified twice.
func (rc *rawConn) takeErrno() syscall.Errno {
	errno := rc.readErrno
	rc.readErrno = syscall.EAGAIN
	return errno
}

// wantsWrite reports whether the last would-block condition was on the
// write side, steering the default poll wait.
func (rc *rawConn) wantsWrite() bool {
	return rc.wantWrite
}

func (rc *rawConn) Write(p []byte) (int, error) {
	rc.staged = append(rc.staged, p...)
	return len(p), nil
}

// pending reports how many staged bytes still await flushing.
func (rc *rawConn) pending() int {
	return len(rc.staged)
}

// flushOnce makes one attempt at writing the staged bytes. done reports an
// empty stage; a nil error without done is a partial write.
func (rc *rawConn) flushOnce() (done bool, err error) {
	if len(rc.staged) == 0 {
		return true, nil
	}
	n, werr := rc.writeFn(rc.fd.Socket(), rc.staged)
	if werr != nil {
		if errors.Is(werr, syscall.EINTR) {
			return false, syscall.EINTR
		}
		if errors.Is(werr, syscall.EAGAIN) || errors.Is(werr, syscall.EWOULDBLOCK) {
			rc.wantWrite = true
			return false, syscall.EAGAIN
		}
		return false, os.NewSyscallError("write", werr)
	}
	rc.wantWrite = false
	rc.staged = rc.staged[n:]
	if len(rc.staged) == 0 {
		rc.staged = nil
		return true, nil
	}
	return false, nil
}

func (rc *rawConn) Close() error {
	return nil
}

func (rc *rawConn) LocalAddr() net.Addr {
	return rc.fd.LocalAddr()
}

func (rc *rawConn) RemoteAddr() net.Addr {
	return rc.fd.RemoteAddr()
}

func (rc *rawConn) SetDeadline(_ time.Time) error {
	return nil
}

func (rc *rawConn) SetReadDeadline(_ time.Time) error {
	return nil
}

func (rc *rawConn) SetWriteDeadline(_ time.Time) error {
	return nil
}
