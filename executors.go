package tlsio

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
)

var (
	executors   rxp.Executors
	initialized atomic.Bool
)

// taskFunc adapts a plain function to the pool's task contract.
type taskFunc func(ctx context.Context)

func (fn taskFunc) Handle(ctx context.Context) {
	fn(ctx)
}

// Startup brackets the process lifetime: it owns the executor pool the
// accept service dispatches onto and arms every bind and session entry
// point. Call it once at program start, before any Bind or BindSecure.
func Startup(options ...rxp.Option) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case error:
				err = e
			case string:
				err = errors.New(e)
			default:
				err = errors.New(fmt.Sprintf("%+v", r))
			}
		}
	}()
	executors, err = rxp.New(options...)
	if err != nil {
		return
	}
	initialized.Store(true)
	return
}

// Shutdown closes the executor pool, waiting for running handlers to
// return; bound the wait with rxp.WithCloseTimeout at Startup. Binds and
// sessions created afterwards fail with ErrNotInitialized.
func Shutdown() error {
	if !initialized.CompareAndSwap(true, false) {
		return errors.From(ErrNotInitialized)
	}
	return executors.Close()
}

// Executors exposes the pool owned by Startup.
func Executors() rxp.Executors {
	return executors
}

func ready() bool {
	return initialized.Load()
}
