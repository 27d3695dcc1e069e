// Package session implements the translation session controller: the state of one
// interactive session, its single in-flight translation request, the usage quota and
// the live mirror of the identity's translation history.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"linguo/internal/domain"
	"linguo/internal/language"
	"linguo/internal/repository"
	"linguo/internal/speech"
	"linguo/internal/translate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Translator performs one remote translation
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (string, error)
}

// IdentityProvider issues anonymous identities
type IdentityProvider interface {
	Current(ctx context.Context, deviceKey string) (*domain.Identity, error)
	SignInAnonymously(ctx context.Context, deviceKey string) (*domain.Identity, error)
}

// Quota reads and writes the device-local usage counter
type Quota interface {
	Limit() int
	Load(ctx context.Context, identityID string) (int, error)
	Save(ctx context.Context, identityID string, count int) error
}

// Clock tells the current time
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Deps are the collaborators of a controller. Translator, History, Feed and Quota are required.
type Deps struct {
	Translator Translator
	History    repository.HistoryRepository
	Feed       repository.HistoryFeed
	Quota      Quota
	Languages  *language.Catalog
	SpeechOut  speech.Output
	SpeechIn   speech.Input
	Clock      Clock
	NewID      func() string
	Logger     *zap.Logger

	DefaultSource string
	DefaultTarget string
}

// Outcome describes a translation that reached the endpoint successfully
type Outcome struct {
	Text             string
	Entry            *domain.HistoryEntry
	Persisted        bool
	TranslationCount int
}

// Controller owns the state of one session. All methods are safe for concurrent use;
// at most one translation request is in flight at a time.
type Controller struct {
	d      Deps
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      domain.Session
	identity   *domain.Identity
	history    []domain.HistoryEntry
	sub        repository.HistorySubscription
	pending    *pendingIdentity
	lastActive time.Time
	closed     bool
}

// New creates a controller with default languages selected
func New(d Deps) *Controller {
	if d.Languages == nil {
		d.Languages = language.Default()
	}
	d.SpeechOut = speech.OutputOrDisabled(d.SpeechOut)
	d.SpeechIn = speech.InputOrDisabled(d.SpeechIn)
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.DefaultSource == "" {
		d.DefaultSource = "es"
	}
	if d.DefaultTarget == "" {
		d.DefaultTarget = "en"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		d:      d,
		ctx:    ctx,
		cancel: cancel,
		state: domain.Session{
			SourceLanguage: d.DefaultSource,
			TargetLanguage: d.DefaultTarget,
			Phase:          domain.PhaseIdle,
		},
		history:    []domain.HistoryEntry{},
		lastActive: d.Clock.Now(),
	}
}

// EstablishIdentity resolves the identity of deviceKey, creating an anonymous one when
// the device has none, then loads its counter and subscribes to its history.
func (c *Controller) EstablishIdentity(ctx context.Context, provider IdentityProvider, deviceKey string) error {
	c.touch()

	identity, err := provider.Current(ctx, deviceKey)
	if err == nil && identity == nil {
		identity, err = provider.SignInAnonymously(ctx, deviceKey)
	}
	if err == nil && identity == nil {
		err = errors.New("no identity issued")
	}
	if err != nil {
		derr := domain.NewError(domain.ErrIdentityUnavailable, "Could not sign in, translation and history are disabled.", err)
		c.d.Logger.Error("Failed to establish identity", zap.String("device_key", deviceKey), zap.Error(err))
		c.fail(derr)
		return derr
	}

	return c.SetIdentity(ctx, *identity)
}

// pendingIdentity is an identity whose counter is being loaded.
// Concurrent requests for the same identity wait on done instead of loading again.
type pendingIdentity struct {
	id   string
	done chan struct{}
	err  error
}

func (p *pendingIdentity) finish(err error) {
	p.err = err
	close(p.done)
}

// SetIdentity makes identity the active one. Switching identities tears down the
// previous history subscription and opens a new one. When calls overlap the latest
// identity wins.
func (c *Controller) SetIdentity(ctx context.Context, identity domain.Identity) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("session closed")
	}
	if c.identity != nil && c.identity.ID == identity.ID && c.state.IdentityReady {
		c.mu.Unlock()
		return nil
	}
	if p := c.pending; p != nil && p.id == identity.ID {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p := &pendingIdentity{id: identity.ID, done: make(chan struct{})}
	c.pending = p
	c.mu.Unlock()

	count, err := c.d.Quota.Load(ctx, identity.ID)
	if err != nil {
		derr := domain.NewError(domain.ErrQuotaStoreFailed, "Could not read usage counter, translation is disabled.", err)
		c.d.Logger.Error("Failed to load quota", zap.String("identity_id", identity.ID), zap.Error(err))
		c.mu.Lock()
		if c.pending == p {
			c.pending = nil
			c.state.ErrorMessage = derr.Message
		}
		c.mu.Unlock()
		p.finish(derr)
		return derr
	}

	c.mu.Lock()
	if c.pending != p || c.closed {
		// Overtaken by another identity; its counter must not be overwritten
		c.mu.Unlock()
		c.d.Logger.Debug("Identity superseded while loading", zap.String("identity_id", identity.ID))
		p.finish(nil)
		return nil
	}
	c.pending = nil
	old := c.sub
	c.sub = nil
	c.identity = &identity
	c.history = []domain.HistoryEntry{}
	c.state.IdentityID = identity.ID
	c.state.IdentityReady = true
	c.state.TranslationCount = count
	c.state.ErrorMessage = ""
	c.mu.Unlock()
	p.finish(nil)

	if old != nil {
		_ = old.Close()
	}

	c.d.Logger.Info("Identity established",
		zap.String("identity_id", identity.ID),
		zap.Int("translation_count", count),
	)

	c.subscribeHistory(identity.ID)
	return nil
}

// SubmitTranslation translates input with the selected languages, stores the result
// in history and counts it against the quota.
func (c *Controller) SubmitTranslation(ctx context.Context, input string) (Outcome, error) {
	c.mu.Lock()
	c.lastActive = c.d.Clock.Now()

	text := strings.TrimSpace(input)
	if err := c.validateLocked(text); err != nil {
		// A request in flight keeps its state untouched
		if !c.state.IsLoading {
			c.state.InputText = input
			c.state.Phase = domain.PhaseRejected
			c.state.ErrorMessage = err.Message
		}
		c.mu.Unlock()
		return Outcome{}, err
	}
	c.state.InputText = input
	c.state.Phase = domain.PhaseValidating

	identity := *c.identity
	previous := c.state.TranslatedText
	source, target := c.state.SourceLanguage, c.state.TargetLanguage

	c.state.ErrorMessage = ""
	c.state.TranslatedText = ""
	c.state.IsLoading = true
	c.state.Phase = domain.PhaseDispatched
	c.mu.Unlock()

	translated, err := c.d.Translator.Translate(ctx, translate.Request{
		Text:       text,
		SourceName: c.d.Languages.Name(source),
		TargetName: c.d.Languages.Name(target),
	})
	if err != nil {
		derr := domain.NewError(domain.ErrTranslationFailed, "Translation error: "+upstreamMessage(err), err)
		c.d.Logger.Warn("Translation failed",
			zap.String("identity_id", identity.ID),
			zap.String("source_lang", source),
			zap.String("target_lang", target),
			zap.Error(err),
		)

		c.mu.Lock()
		c.state.TranslatedText = previous
		c.state.ErrorMessage = derr.Message
		c.state.IsLoading = false
		c.state.Phase = domain.PhaseFailed
		c.mu.Unlock()
		return Outcome{}, derr
	}

	c.mu.Lock()
	c.state.TranslatedText = translated
	c.mu.Unlock()

	outcome, perr := c.persist(ctx, identity, domain.HistoryEntry{
		ID:             c.d.NewID(),
		IdentityID:     identity.ID,
		OriginalText:   text,
		TranslatedText: translated,
		SourceLanguage: source,
		TargetLanguage: target,
	})

	c.mu.Lock()
	if perr != nil {
		c.state.ErrorMessage = perr.Message
	}
	outcome.TranslationCount = c.state.TranslationCount
	c.state.IsLoading = false
	c.state.Phase = domain.PhaseSucceeded
	c.mu.Unlock()

	if perr != nil {
		return outcome, perr
	}
	return outcome, nil
}

// persist is the second pipeline stage: durable history write, then quota increment
func (c *Controller) persist(ctx context.Context, identity domain.Identity, entry domain.HistoryEntry) (Outcome, *domain.Error) {
	outcome := Outcome{Text: entry.TranslatedText}

	stored, err := c.d.History.Append(ctx, entry)
	if err != nil {
		c.d.Logger.Error("Failed to save translation history",
			zap.String("identity_id", identity.ID),
			zap.Error(err),
		)
		return outcome, domain.NewError(domain.ErrHistoryWriteFailed, "The translation could not be saved to history.", err)
	}
	outcome.Entry = stored
	outcome.Persisted = true

	c.mu.Lock()
	if c.identity == nil || c.identity.ID != identity.ID {
		// Identity switched while the request was running; its counter is not ours
		c.mu.Unlock()
		return outcome, nil
	}
	c.state.TranslationCount++
	count := c.state.TranslationCount
	c.mu.Unlock()

	if err := c.d.Quota.Save(ctx, identity.ID, count); err != nil {
		c.d.Logger.Error("Failed to save quota",
			zap.String("identity_id", identity.ID),
			zap.Int("translation_count", count),
			zap.Error(err),
		)
		return outcome, domain.NewError(domain.ErrQuotaStoreFailed, "The usage counter could not be saved.", err)
	}

	c.d.Logger.Info("Translation saved",
		zap.String("identity_id", identity.ID),
		zap.String("entry_id", stored.ID),
		zap.Int("translation_count", count),
	)
	return outcome, nil
}

func (c *Controller) validateLocked(text string) *domain.Error {
	if c.identity == nil || !c.state.IdentityReady {
		return domain.NewError(domain.ErrIdentityUnavailable, "You are not signed in yet.", nil)
	}
	if text == "" {
		return domain.NewError(domain.ErrEmptyInput, "Please enter some text to translate.", nil)
	}
	if c.state.IsLoading {
		return domain.NewError(domain.ErrRequestInFlight, "A translation is already in progress.", nil)
	}
	if limit := c.d.Quota.Limit(); c.state.TranslationCount >= limit {
		return domain.NewError(domain.ErrQuotaExceeded,
			fmt.Sprintf("You have reached the limit of %d free translations.", limit), nil)
	}
	return nil
}

func upstreamMessage(err error) string {
	var upstream *translate.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return upstream.Message
	case errors.Is(err, translate.ErrEmptyTranslation):
		return "the service returned no translation"
	default:
		return err.Error()
	}
}

// DeleteHistoryEntry removes an entry from the remote store. The local mirror changes
// only when the live subscription delivers the next snapshot.
func (c *Controller) DeleteHistoryEntry(ctx context.Context, entryID string) error {
	c.mu.Lock()
	c.lastActive = c.d.Clock.Now()
	if c.identity == nil || !c.state.IdentityReady {
		derr := domain.NewError(domain.ErrIdentityUnavailable, "You are not signed in yet.", nil)
		c.state.ErrorMessage = derr.Message
		c.mu.Unlock()
		return derr
	}
	identityID := c.identity.ID
	c.mu.Unlock()

	if err := c.d.History.Delete(ctx, identityID, entryID); err != nil {
		derr := domain.NewError(domain.ErrDeleteFailed, "Could not delete the translation.", err)
		c.d.Logger.Warn("Failed to delete history entry",
			zap.String("identity_id", identityID),
			zap.String("entry_id", entryID),
			zap.Error(err),
		)
		c.fail(derr)
		return derr
	}
	return nil
}

// LoadFromHistory copies an entry into the current session and clears the error
func (c *Controller) LoadFromHistory(entry domain.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.d.Clock.Now()
	c.state.InputText = entry.OriginalText
	c.state.TranslatedText = entry.TranslatedText
	c.state.SourceLanguage = entry.SourceLanguage
	c.state.TargetLanguage = entry.TargetLanguage
	c.state.ErrorMessage = ""
}

// HistoryEntry finds an entry in the local mirror
func (c *Controller) HistoryEntry(entryID string) (domain.HistoryEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.history {
		if e.ID == entryID {
			return e, true
		}
	}
	return domain.HistoryEntry{}, false
}

// SetInput replaces the input text
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.d.Clock.Now()
	c.state.InputText = text
}

// SetSourceLanguage selects the language of the input
func (c *Controller) SetSourceLanguage(code string) error {
	return c.setLanguage(code, func(s *domain.Session, l string) { s.SourceLanguage = l })
}

// SetTargetLanguage selects the language of the translation
func (c *Controller) SetTargetLanguage(code string) error {
	return c.setLanguage(code, func(s *domain.Session, l string) { s.TargetLanguage = l })
}

func (c *Controller) setLanguage(code string, apply func(*domain.Session, string)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.d.Clock.Now()

	l, ok := c.d.Languages.Lookup(code)
	if !ok {
		derr := domain.NewError(domain.ErrUnsupportedLanguage, fmt.Sprintf("Language %q is not supported.", code), nil)
		c.state.ErrorMessage = derr.Message
		return derr
	}
	apply(&c.state, l.Code)
	return nil
}

// SwapLanguages exchanges source and target languages
func (c *Controller) SwapLanguages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.d.Clock.Now()
	c.state.SourceLanguage, c.state.TargetLanguage = c.state.TargetLanguage, c.state.SourceLanguage
}

// Snapshot returns a copy of the session state
func (c *Controller) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns a copy of the mirrored history, newest first
func (c *Controller) History() []domain.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// Remaining returns how many free translations are left
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	left := c.d.Quota.Limit() - c.state.TranslationCount
	if left < 0 {
		return 0
	}
	return left
}

// Limit returns the number of free translations per identity
func (c *Controller) Limit() int {
	return c.d.Quota.Limit()
}

// Languages returns the catalog used by the session
func (c *Controller) Languages() *language.Catalog {
	return c.d.Languages
}

// LastActive returns the time of the last user action
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Busy reports whether a translation request is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsLoading
}

// Close ends the session and its history subscription
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()

	c.cancel()
	if sub != nil {
		_ = sub.Close()
	}
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastActive = c.d.Clock.Now()
	c.mu.Unlock()
}

// fail records err as the latest user-visible error
func (c *Controller) fail(err *domain.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ErrorMessage = err.Message
}
