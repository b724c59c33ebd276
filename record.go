package tlsio

import (
	"io"

	"github.com/bifurcation/mint"
	"github.com/brickingsoft/errors"
)

// sendChunk bounds how much plaintext is handed to the engine per step, so
// a large buffer turns into record-sized pieces and every flushed piece is
// observable progress. It stays well under the 16384-byte record ceiling;
// the ciphertext carries AEAD overhead on top of the plaintext and a full
// chunk must still fit one record.
const sendChunk = 8 * 1024

// Send encrypts and writes the whole buffer. Chunking is transparent: the
// call either writes everything or fails. tickle is invoked on every
// partial progress, letting callers reset their idle timers; wait is
// invoked once for each would-block condition. Nil callbacks select no
// tickling and a direct poll wait.
func (s *Session) Send(data []byte, tickle func(), wait WaitFunc) error {
	if s.closed || s.eng == nil {
		return errors.From(ErrClosed)
	}
	if wait == nil {
		wait = s.defaultWait()
	}
	for off := 0; off < len(data); {
		end := off + sendChunk
		if end > len(data) {
			end = len(data)
		}
		n, werr := s.eng.Write(data[off:end])
		if werr != nil {
			return errors.From(ErrIO, errors.WithWrap(werr))
		}
		if err := ioLoop(s.raw.flushOnce, tickle, wait); err != nil {
			return errors.From(ErrIO, errors.WithWrap(err))
		}
		off += n
		if tickle != nil && off < len(data) {
			tickle()
		}
	}
	return nil
}

// Receive reads one chunk of plaintext, at most the session's chunk size
// per call. An orderly peer closure yields a nil slice and a nil error,
// never an empty one. wait is invoked once for each would-block condition;
// interrupted reads retry on their own.
func (s *Session) Receive(wait WaitFunc) ([]byte, error) {
	if s.closed || s.eng == nil {
		return nil, errors.From(ErrClosed)
	}
	if wait == nil {
		wait = s.defaultWait()
	}
	buf := make([]byte, s.chunkSize)
	n := 0
	eof := false
	step := func() (bool, error) {
		m, err := s.eng.Read(buf)
		if err == nil {
			if m == 0 {
				// a zero-byte read into a non-empty buffer means the
				// stream is done
				eof = true
				return true, nil
			}
			n = m
			return true, nil
		}
		if errors.Is(err, io.EOF) || errors.Is(err, mint.AlertCloseNotify) {
			eof = true
			return true, nil
		}
		if errors.Is(err, mint.AlertWouldBlock) {
			return false, s.raw.takeErrno()
		}
		return false, errors.From(ErrIO, errors.WithWrap(err))
	}
	if err := ioLoop(step, nil, wait); err != nil {
		if IsIO(err) {
			return nil, err
		}
		return nil, errors.From(ErrIO, errors.WithWrap(err))
	}
	// the engine may have queued a reply of its own, a key update for one
	if s.raw.pending() > 0 {
		if err := ioLoop(s.raw.flushOnce, nil, wait); err != nil {
			return nil, errors.From(ErrIO, errors.WithWrap(err))
		}
	}
	if eof {
		return nil, nil
	}
	return buf[:n], nil
}
