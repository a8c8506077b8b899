package notify

import (
	"context"
	"errors"

	"blitzwatch/services/watcher"
)

// Fanout sends every message to all of its transports, a failing transport
// does not keep the others from receiving it.
type Fanout []watcher.Transport

func (f Fanout) Send(ctx context.Context, msg watcher.Message) error {
	var errs []error
	for _, t := range f {
		err := t.Send(ctx, msg)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
