package tlsio

import (
	"context"
	"syscall"

	"github.com/brickingsoft/errors"
	"github.com/vlourme/tlsio/pkg/sys"
)

// acceptPollMillis bounds each readiness wait on the listener, so the
// accept loop notices cancellation without a wakeup pipe.
const acceptPollMillis = 500

// Handler runs for every accepted connection, on the executor pool. sess
// is nil on plain endpoints. The accepted descriptor is closed after the
// handler returns; the handler must not close it.
type Handler func(ctx context.Context, fd *sys.Fd, sess *Session)

// Serve accepts connections until ctx is cancelled. On secure endpoints it
// establishes the session before invoking the handler and closes it after;
// handshake failures drop the connection without invoking the handler.
// Serve owns the listening socket and closes it on the way out.
func Serve(ctx context.Context, ep *ListeningEndpoint, handler Handler) error {
	if !ready() {
		return errors.From(ErrNotInitialized)
	}
	defer func() {
		_ = ep.CloseSocket()
	}()
	for {
		if ctx.Err() != nil {
			return nil
		}
		cfd, acceptErr := sys.Accept(ep.fd)
		if acceptErr != nil {
			if errors.Is(acceptErr, syscall.EAGAIN) {
				_ = sys.WaitReadTimeout(ep.fd.Socket(), acceptPollMillis)
				continue
			}
			return errors.From(ErrIO, errors.WithWrap(acceptErr))
		}
		_ = cfd.SetNoDelay(true)
		execErr := Executors().Execute(ctx, taskFunc(func(ctx context.Context) {
			defer func() {
				_ = cfd.Close()
			}()
			var sess *Session
			if ep.secure {
				var hsErr error
				sess, hsErr = NewSession(ep, cfd, 0, nil)
				if hsErr != nil {
					logger.Debug().Err(hsErr).Str("conn", cfd.Name()).Msg("handshake failed")
					return
				}
				defer func() {
					_ = sess.Close()
				}()
			}
			handler(ctx, cfd, sess)
		}))
		if execErr != nil {
			_ = cfd.Close()
			if ctx.Err() != nil {
				return nil
			}
			return errors.From(ErrClosed, errors.WithWrap(execErr))
		}
	}
}
