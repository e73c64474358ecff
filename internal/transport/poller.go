package transport

import (
	"context"
	"log/slog"
	"time"
)

// Handler consumes inbound updates.
type Handler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// UpdateSource fetches batches of inbound updates. *Client implements it.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
}

// Poller drives the long-poll loop: it fetches updates from the
// gateway and hands them to the handler one at a time, in arrival
// order. Update handling for a given user is therefore sequential;
// any background work the handler spawns is its own concern.
type Poller struct {
	source  UpdateSource
	handler Handler
	logger  *slog.Logger
	backoff time.Duration
}

// NewPoller creates a poller feeding handler from source.
func NewPoller(source UpdateSource, handler Handler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:  source,
		handler: handler,
		logger:  logger,
		backoff: time.Second,
	}
}

// Run polls until ctx is canceled. Fetch errors are logged and
// retried after a short backoff; they never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := p.source.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("fetch updates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.handler.HandleUpdate(ctx, update)
		}
	}
}
