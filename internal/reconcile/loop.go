package reconcile

import (
	"context"

	"github.com/npratt/beacon/internal/events"
	"github.com/npratt/beacon/internal/viewmodel"
)

// Run drains q into e until ctx is cancelled or q is closed, calling render
// with every resulting view model. It is the headless counterpart of the
// terminal UI loop.
func Run(ctx context.Context, q *events.Queue, e *Engine, render func(viewmodel.ViewModel)) error {
	vm := e.Start()
	if render != nil {
		render(vm)
	}
	defer e.Close()

	for {
		ev, ok := q.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}
		vm := e.Reduce(ev)
		if render != nil {
			render(vm)
		}
	}
}
