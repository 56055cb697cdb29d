package workers

import (
	"chat-timeline/contract"
	"context"
)

// send delivers an update downstream, giving up if the view is torn down.
func send(ctx context.Context, out chan<- contract.TimelineUpdate, update contract.TimelineUpdate) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- update:
		return nil
	}
}

// fail surfaces a read error to the subscriber and hands the worker's fate
// to the supervisor: no retry happens inside the worker itself.
func fail(ctx context.Context, out chan<- contract.TimelineUpdate, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	_ = send(ctx, out, contract.TimelineUpdate{Err: err})
	return err
}
