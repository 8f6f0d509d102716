package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/odshub/internal/apperr"
	"github.com/starford/odshub/internal/models"
)

// State is the lifecycle stage of a search session.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
	StateClosed  State = "closed"
)

// CorpusFunc builds the records a session searches.
type CorpusFunc func(ctx context.Context) ([]models.SearchRecord, error)

// Snapshot is the answer to one query against a session.
type Snapshot struct {
	State   State
	Query   string
	Results []Result
	Groups  []Group
	// Records is the corpus size; zero until the session is ready.
	Records int
}

// Empty reports whether the snapshot is the "no results" state, as opposed
// to still loading.
func (s Snapshot) Empty() bool {
	return s.State != StateLoading && len(s.Results) == 0
}

// Session owns one corpus build and answers queries against it. The corpus
// is built in the background; queries before it arrives report
// StateLoading. A build that fails leaves the session in StateError, where
// every query reports no results.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	state    State
	engine   *Engine
	err      error
	lastUsed time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// StartSession begins building a corpus with build and returns immediately.
// Cancelling ctx or calling Close discards the build result.
func StartSession(ctx context.Context, id string, build CorpusFunc, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(ctx)
	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		state:     StateLoading,
		lastUsed:  now,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		records, err := build(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if ctx.Err() != nil || s.state != StateLoading {
			// Superseded: the owner is gone, drop the result.
			return
		}
		if err != nil {
			s.state = StateError
			s.err = err
			return
		}
		s.engine = NewEngine(records, opts...)
		s.state = StateReady
	}()
	return s
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the build error of a session in StateError.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Query evaluates q against the session's corpus.
func (s *Session) Query(q string) Snapshot {
	s.mu.Lock()
	s.lastUsed = time.Now()
	state, engine := s.state, s.engine
	s.mu.Unlock()

	snap := Snapshot{State: state, Query: q, Results: []Result{}, Groups: []Group{}}
	if state != StateReady {
		return snap
	}
	snap.Records = engine.Len()
	snap.Results = engine.Search(q)
	snap.Groups = GroupByCollection(snap.Results)
	return snap
}

// Wait blocks until the build finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels an in-flight build. Its result, if it still arrives, is
// discarded.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.engine = nil
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// Registry tracks live sessions and expires idle ones.
type Registry struct {
	ctx    context.Context
	build  CorpusFunc
	ttl    time.Duration
	opts   []Option
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions build with build and expire
// after ttl without a query. Sessions are children of ctx, not of the
// request that created them.
func NewRegistry(ctx context.Context, build CorpusFunc, ttl time.Duration, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ctx:      ctx,
		build:    build,
		ttl:      ttl,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start creates and registers a new session.
func (r *Registry) Start() *Session {
	s := StartSession(r.ctx, uuid.NewString(), r.build, r.opts...)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.logger.Debug("search: session started", slog.String("session", s.ID))
	return s
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, apperr.ErrSessionNotFound)
	}
	return s, nil
}

// Close tears down the session with id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, apperr.ErrSessionNotFound)
	}
	s.Close()
	r.logger.Debug("search: session closed", slog.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle since before now-ttl and returns how many it
// removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		r.logger.Debug("search: sessions expired", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is cancelled, then
// closes every remaining session.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
