package audit

import "context"

// Worker moves events from the ChannelPublisher's inbox into the store. The
// channel decouples candidate and sync request handling from persistence; a
// failing Append stops the worker so the fault surfaces in main instead of
// silently eating history.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run consumes until ctx is cancelled, then drains what is already buffered
// so events from in-flight requests survive a graceful shutdown.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if err := w.drain(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	for {
		select {
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
