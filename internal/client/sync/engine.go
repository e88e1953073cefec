package sync

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/syncproto"
)

// State is the lifecycle of one entry session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSynced
	// StateDiverged means the last push or pull failed and local and
	// server copies may differ until the next successful exchange.
	StateDiverged
)

// Transport is one live sync connection. The concrete implementation lives
// in internal/client/transport; tests use a fake.
type Transport interface {
	Hello(ctx context.Context, sinceVersion int64) error
	Push(ctx context.Context, entries []syncproto.Entry) error
	// Frames delivers incoming update and ack frames until the connection
	// closes, at which point the channel is closed.
	Frames() <-chan syncproto.Frame
	Close() error
}

// DialFunc opens a new Transport.
type DialFunc func(ctx context.Context) (Transport, error)

// Store is the slice of the local cache the engine needs.
type Store interface {
	Upsert(ctx context.Context, e *models.Entry) error
	ApplyRemote(ctx context.Context, e *models.Entry) error
	GetPending(ctx context.Context) ([]*models.Entry, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MaxVersion(ctx context.Context) (int64, error)
}

// UpdateFunc is called when a remote update passes the idle policy and has
// been applied to the cache.
type UpdateFunc func(entryID string, payload []byte, payloadNonce []byte)

// session is the sync state for one open entry. The generation counter
// fences stale goroutines: every async completion re-checks that its session
// is still the current one before touching engine state.
type session struct {
	entryID    string
	generation uint64

	state         State
	transport     Transport
	cancel        context.CancelFunc
	lastLocalEdit *time.Time
	debounce      *time.Timer
	// ids pushed in the last batch, marked synced on ack
	inFlight []string
}

// Engine drives sync for the entries the user currently has open. Opening an
// entry connects and reconciles; edits are debounced into pushes; incoming
// updates are applied only when the user is idle. Every transport error is
// logged and swallowed: sync failures must never break local editing.
type Engine struct {
	dial           DialFunc
	store          Store
	logger         logging.Logger
	onEntryUpdated UpdateFunc

	idleThreshold time.Duration
	pushDebounce  time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	lastGen  uint64
}

// Option tweaks engine behavior.
type Option func(*Engine)

func WithIdleThreshold(d time.Duration) Option { return func(e *Engine) { e.idleThreshold = d } }
func WithPushDebounce(d time.Duration) Option  { return func(e *Engine) { e.pushDebounce = d } }

// withNow overrides the clock in tests.
func withNow(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(dial DialFunc, store Store, onEntryUpdated UpdateFunc, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		dial:           dial,
		store:          store,
		logger:         logger,
		onEntryUpdated: onEntryUpdated,
		idleThreshold:  DefaultIdleThreshold,
		pushDebounce:   DefaultPushDebounce,
		now:            time.Now,
		sessions:       make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the session state for an entry, StateDisconnected when no
// session exists.
func (e *Engine) State(entryID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[entryID]; ok {
		return s.state
	}
	return StateDisconnected
}

// SyncOnOpen starts a sync session for the entry: dial, hello with the local
// watermark, then push anything pending. Calling it for an already open
// entry is a no-op. Connection failures leave the session in StateDiverged;
// the entry stays editable offline.
func (e *Engine) SyncOnOpen(entryID string) {
	e.mu.Lock()
	if _, ok := e.sessions[entryID]; ok {
		e.mu.Unlock()
		return
	}
	e.lastGen++
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		entryID:    entryID,
		generation: e.lastGen,
		state:      StateConnecting,
		cancel:     cancel,
	}
	e.sessions[entryID] = s
	e.mu.Unlock()

	go e.connect(ctx, s)
}

func (e *Engine) connect(ctx context.Context, s *session) {
	transport, err := e.dial(ctx)
	if err != nil {
		e.logger.Warn(ctx, "sync dial failed", "entry_id", s.entryID, "error", err)
		e.setState(s, StateDiverged)
		return
	}

	if !e.adopt(s, transport) {
		// session was closed while dialing
		transport.Close()
		return
	}

	sinceVersion, err := e.store.MaxVersion(ctx)
	if err != nil {
		e.logger.Error(ctx, "reading sync watermark", "error", err)
		sinceVersion = 0
	}
	if err := transport.Hello(ctx, sinceVersion); err != nil {
		e.logger.Warn(ctx, "sync hello failed", "entry_id", s.entryID, "error", err)
		e.setState(s, StateDiverged)
		return
	}

	go e.readLoop(ctx, s, transport)

	e.pushPending(ctx, s)
	e.setState(s, StateSynced)
}

// adopt attaches the transport to the session if the session is still
// current.
func (e *Engine) adopt(s *session, t Transport) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	current, ok := e.sessions[s.entryID]
	if !ok || current.generation != s.generation {
		return false
	}
	s.transport = t
	return true
}

func (e *Engine) setState(s *session, state State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	current, ok := e.sessions[s.entryID]
	if ok && current.generation == s.generation {
		s.state = state
	}
}

func (e *Engine) readLoop(ctx context.Context, s *session, t Transport) {
	for frame := range t.Frames() {
		switch frame.Type {
		case syncproto.TypeUpdate:
			e.handleUpdate(ctx, s, &frame)
		case syncproto.TypeAck:
			e.handleAck(ctx, s, &frame)
		case syncproto.TypeError:
			e.logger.Warn(ctx, "sync server error", "entry_id", s.entryID, "error", frame.Error)
		}
	}
	e.setState(s, StateDiverged)
}

// handleUpdate applies the remote entries that pass the idle policy. Applied
// entries go through the cache first so they are never re-pushed, then
// surface via the callback. Dropped entries are simply ignored: the local
// copy wins and the next debounced push carries it to the server.
func (e *Engine) handleUpdate(ctx context.Context, s *session, frame *syncproto.Frame) {
	for _, entry := range frame.Entries {
		if !ShouldApply(e.now(), e.lastEditOf(entry.ID), e.idleThreshold) {
			e.logger.Debug(ctx, "dropping remote update, user is typing", "entry_id", entry.ID)
			continue
		}
		err := e.store.ApplyRemote(ctx, &models.Entry{
			ID:           entry.ID,
			Payload:      entry.Payload,
			PayloadNonce: entry.PayloadNonce,
			Deleted:      entry.Deleted,
			Version:      entry.Version,
		})
		if err != nil {
			e.logger.Error(ctx, "applying remote entry", "entry_id", entry.ID, "error", err)
			continue
		}
		if e.onEntryUpdated != nil {
			e.onEntryUpdated(entry.ID, entry.Payload, entry.PayloadNonce)
		}
	}
}

func (e *Engine) handleAck(ctx context.Context, s *session, frame *syncproto.Frame) {
	e.mu.Lock()
	acked := s.inFlight
	s.inFlight = nil
	e.mu.Unlock()

	for _, id := range acked {
		if err := e.store.MarkSynced(ctx, id, frame.MaxVersion); err != nil {
			e.logger.Error(ctx, "marking entry synced", "entry_id", id, "error", err)
		}
	}
	e.setState(s, StateSynced)
}

func (e *Engine) lastEditOf(entryID string) *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[entryID]; ok {
		return s.lastLocalEdit
	}
	return nil
}

// NoteLocalEdit saves the edited content to the cache right away and
// schedules a debounced push. Each keystroke restarts the timer, so a burst
// of typing becomes one push.
func (e *Engine) NoteLocalEdit(entryID string, payload []byte, payloadNonce []byte) {
	ctx := context.Background()
	err := e.store.Upsert(ctx, &models.Entry{
		ID:           entryID,
		Payload:      payload,
		PayloadNonce: payloadNonce,
	})
	if err != nil {
		e.logger.Error(ctx, "caching local edit", "entry_id", entryID, "error", err)
		return
	}

	e.mu.Lock()
	s, ok := e.sessions[entryID]
	if !ok {
		// entry edited without an open session; the edit stays pending
		// in the cache until the next SyncOnOpen
		e.mu.Unlock()
		return
	}
	now := e.now()
	s.lastLocalEdit = &now
	if s.debounce != nil {
		s.debounce.Stop()
	}
	generation := s.generation
	s.debounce = time.AfterFunc(e.pushDebounce, func() {
		e.debouncedPush(entryID, generation)
	})
	e.mu.Unlock()
}

func (e *Engine) debouncedPush(entryID string, generation uint64) {
	e.mu.Lock()
	s, ok := e.sessions[entryID]
	if !ok || s.generation != generation {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.pushPending(context.Background(), s)
}

// pushPending sends every pending cache entry in one push frame.
func (e *Engine) pushPending(ctx context.Context, s *session) {
	e.mu.Lock()
	transport := s.transport
	e.mu.Unlock()
	if transport == nil {
		return
	}

	pending, err := e.store.GetPending(ctx)
	if err != nil {
		e.logger.Error(ctx, "reading pending entries", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	entries := make([]syncproto.Entry, 0, len(pending))
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		entries = append(entries, syncproto.Entry{
			ID:           p.ID,
			Payload:      p.Payload,
			PayloadNonce: p.PayloadNonce,
			Deleted:      p.Deleted,
		})
		ids = append(ids, p.ID)
	}

	e.mu.Lock()
	s.inFlight = ids
	e.mu.Unlock()

	if err := transport.Push(ctx, entries); err != nil {
		e.logger.Warn(ctx, "sync push failed", "entry_id", s.entryID, "error", err)
		e.setState(s, StateDiverged)
	}
}

// DisconnectOnClose tears down the entry's session: the pending debounce
// timer is cancelled and flushed first so a just-typed edit is not stranded,
// then the transport closes. Safe to call for entries that were never
// opened.
func (e *Engine) DisconnectOnClose(entryID string) {
	e.mu.Lock()
	s, ok := e.sessions[entryID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.sessions, entryID)
	if s.debounce != nil {
		s.debounce.Stop()
	}
	transport := s.transport
	e.mu.Unlock()

	if transport != nil {
		// final flush; anything that fails stays pending in the cache
		e.pushPending(context.Background(), s)
		transport.Close()
	}
	s.cancel()
}

// Close tears down every open session.
func (e *Engine) Close() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.DisconnectOnClose(id)
	}
}
