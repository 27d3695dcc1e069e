package session

import (
	"linguo/internal/domain"
	"linguo/internal/repository"

	"go.uber.org/zap"
)

// subscribeHistory opens the live history query of identityID. Failures leave the
// mirror empty and surface HistoryUnavailable; translation keeps working.
func (c *Controller) subscribeHistory(identityID string) {
	sub, err := c.d.Feed.Subscribe(c.ctx, identityID)
	if err != nil {
		c.d.Logger.Error("Failed to subscribe to history", zap.String("identity_id", identityID), zap.Error(err))
		c.fail(domain.NewError(domain.ErrHistoryUnavailable, "History is unavailable right now.", err))
		return
	}

	c.mu.Lock()
	if c.closed || c.identity == nil || c.identity.ID != identityID || c.sub != nil {
		c.mu.Unlock()
		_ = sub.Close()
		return
	}
	c.sub = sub
	c.mu.Unlock()

	go c.consume(sub)
}

// consume mirrors snapshots of sub until it ends. Snapshots of a replaced
// subscription are dropped.
func (c *Controller) consume(sub repository.HistorySubscription) {
	snapshots, errs := sub.Snapshots(), sub.Errors()
	for snapshots != nil || errs != nil {
		select {
		case entries, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			mirror := make([]domain.HistoryEntry, len(entries))
			copy(mirror, entries)
			domain.SortNewestFirst(mirror)

			c.mu.Lock()
			if c.sub == sub {
				c.history = mirror
			}
			c.mu.Unlock()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.mu.Lock()
			current := c.sub == sub
			if current {
				c.state.ErrorMessage = "History is unavailable right now."
			}
			c.mu.Unlock()
			if current {
				c.d.Logger.Warn("History subscription error", zap.Error(err))
			}
		}
	}
}
