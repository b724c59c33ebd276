package tlsio

import (
	"runtime"
	"syscall"

	"github.com/brickingsoft/errors"
)

// WaitFunc suspends the calling flow until the session's descriptor may be
// ready again. NewSession, Send and Receive invoke it exactly once for each
// would-block condition they hit; transient interruptions are retried
// without it. A nil WaitFunc selects a poll wait on the descriptor.
type WaitFunc func()

const (
	outcomeFatal = iota
	outcomeTransient
	outcomeBlocking
)

// classify maps an operation result onto the retry taxonomy: EINTR is a
// transient interruption, EAGAIN means the descriptor cannot progress until
// it is ready again, everything else is fatal.
func classify(err error) int {
	if errors.Is(err, syscall.EINTR) {
		return outcomeTransient
	}
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
		return outcomeBlocking
	}
	return outcomeFatal
}

// ioLoop drives one engine operation over a non-blocking descriptor. step
// reports done once the operation finished; a nil error without done is
// forward progress and reported through onProgress. Transient results retry
// immediately, blocking results invoke wait once and retry, fatal results
// abort the loop. Handshaking, sending and receiving all share this loop.
func ioLoop(step func() (done bool, err error), onProgress func(), wait WaitFunc) error {
	for {
		done, err := step()
		if err == nil {
			if done {
				return nil
			}
			if onProgress != nil {
				onProgress()
			}
			continue
		}
		switch classify(err) {
		case outcomeTransient:
			runtime.Gosched()
			continue
		case outcomeBlocking:
			if wait != nil {
				wait()
			}
			continue
		default:
			return err
		}
	}
}
