package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"linguo/internal/domain"
	"linguo/internal/repository"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// HistoryChannel is the NOTIFY channel raised by the translation_history trigger.
// The payload is the identity id whose history changed.
const HistoryChannel = "translation_history_changed"

// ErrFeedClosed is reported to subscribers when the feed stops
var ErrFeedClosed = errors.New("history feed closed")

// notifier is the part of *pq.Listener used by the feed
type notifier interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

type historyLister interface {
	ListByIdentity(ctx context.Context, identityID string) ([]domain.HistoryEntry, error)
}

// NewListener creates a reconnecting LISTEN connection
func NewListener(dsn string, logger *zap.Logger) *pq.Listener {
	return pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("History listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
}

// HistoryFeed implements repository.HistoryFeed on top of LISTEN/NOTIFY.
// Every notification for an identity re-runs the history query for its subscribers.
type HistoryFeed struct {
	history  historyLister
	listener notifier
	logger   *zap.Logger

	mu        sync.Mutex
	subs      map[string]map[*historySubscription]struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHistoryFeed starts listening for history changes
func NewHistoryFeed(history historyLister, listener notifier, logger *zap.Logger) (*HistoryFeed, error) {
	if err := listener.Listen(HistoryChannel); err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", HistoryChannel, err)
	}

	f := &HistoryFeed{
		history:  history,
		listener: listener,
		logger:   logger,
		subs:     make(map[string]map[*historySubscription]struct{}),
		done:     make(chan struct{}),
	}
	go f.run()
	return f, nil
}

// Subscribe opens a live query for identityID. The first snapshot is delivered right away.
func (f *HistoryFeed) Subscribe(ctx context.Context, identityID string) (repository.HistorySubscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	s := &historySubscription{
		feed:       f,
		identityID: identityID,
		ctx:        subCtx,
		cancel:     cancel,
		snapshots:  make(chan []domain.HistoryEntry, 1),
		errors:     make(chan error, 1),
		refresh:    make(chan struct{}, 1),
	}

	// Close sweeps subs under mu, so done is checked there too
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		cancel()
		return nil, ErrFeedClosed
	default:
	}
	set, ok := f.subs[identityID]
	if !ok {
		set = make(map[*historySubscription]struct{})
		f.subs[identityID] = set
	}
	set[s] = struct{}{}
	f.mu.Unlock()

	s.trigger()
	go s.run()

	f.logger.Debug("History subscription opened", zap.String("identity_id", identityID))
	return s, nil
}

// Close stops the feed and ends every subscription
func (f *HistoryFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.listener.Close()

		f.mu.Lock()
		for _, set := range f.subs {
			for s := range set {
				s.reportError(ErrFeedClosed)
				s.cancel()
			}
		}
		f.mu.Unlock()
	})
	return err
}

func (f *HistoryFeed) run() {
	for {
		select {
		case <-f.done:
			return
		case n, ok := <-f.listener.NotificationChannel():
			if !ok {
				f.logger.Warn("History listener channel closed")
				_ = f.Close()
				return
			}
			if n == nil {
				// Reconnected: notifications may have been lost meanwhile
				f.logger.Info("History listener reconnected, refreshing subscriptions")
				f.refreshAll()
				continue
			}
			f.refreshIdentity(n.Extra)
		}
	}
}

func (f *HistoryFeed) refreshIdentity(identityID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs[identityID] {
		s.trigger()
	}
}

func (f *HistoryFeed) refreshAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range f.subs {
		for s := range set {
			s.trigger()
		}
	}
}

func (f *HistoryFeed) remove(s *historySubscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.subs[s.identityID]
	delete(set, s)
	if len(set) == 0 {
		delete(f.subs, s.identityID)
	}
}

type historySubscription struct {
	feed       *HistoryFeed
	identityID string
	ctx        context.Context
	cancel     context.CancelFunc
	snapshots  chan []domain.HistoryEntry
	errors     chan error
	refresh    chan struct{}
}

func (s *historySubscription) Snapshots() <-chan []domain.HistoryEntry {
	return s.snapshots
}

func (s *historySubscription) Errors() <-chan error {
	return s.errors
}

// Close ends the subscription; both channels are closed once the worker exits
func (s *historySubscription) Close() error {
	s.cancel()
	return nil
}

func (s *historySubscription) trigger() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (s *historySubscription) run() {
	defer func() {
		s.feed.remove(s)
		close(s.snapshots)
		close(s.errors)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.refresh:
		}

		entries, err := s.feed.history.ListByIdentity(s.ctx, s.identityID)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.reportError(fmt.Errorf("failed to query history: %w", err))
			continue
		}
		domain.SortNewestFirst(entries)

		// Only the latest snapshot matters
		select {
		case <-s.snapshots:
		default:
		}
		select {
		case s.snapshots <- entries:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *historySubscription) reportError(err error) {
	select {
	case s.errors <- err:
	default:
	}
}
