package state

import (
	"sync"

	"go.uber.org/zap"
)

// Snapshot is a consistent copy of the whole container.
type Snapshot struct {
	Students CollectionState
	Session  Session
}

// Store serializes reductions and owns the token side effect.
// Reads return copies; subscribers receive the snapshot produced by each dispatch, in dispatch order.
type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	students CollectionState
	session  Session
	tokens   TokenStore
	logger   *zap.Logger

	subscribers map[int]func(Action, Snapshot)
	nextSub     int
}

// NewStore seeds the session from tokens. A token that cannot be read starts the store signed out.
func NewStore(tokens TokenStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	var token string
	if tokens != nil {
		loaded, err := tokens.Load()
		if err != nil {
			logger.Warn("ignoring unreadable session token", zap.Error(err))
		} else {
			token = loaded
		}
	}
	return &Store{
		students:    NewCollectionState(),
		session:     NewSession(token),
		tokens:      tokens,
		logger:      logger,
		subscribers: make(map[int]func(Action, Snapshot)),
	}
}

// Dispatch reduces a into both slices and persists the token when a requires it.
// Subscribers must not call Dispatch synchronously.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.students = ReduceStudents(s.students, a)
	s.session = ReduceSession(s.session, a)
	s.persistToken(a)
	snap := s.snapshotLocked()
	subs := make([]func(Action, Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(a, snap)
	}
	s.notifyMu.Unlock()
}

// Subscribe registers fn for every subsequent dispatch and returns its cancel func.
func (s *Store) Subscribe(fn func(Action, Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Students returns a copy of the collection state.
func (s *Store) Students() CollectionState {
	return s.Snapshot().Students
}

// Session returns a copy of the session.
func (s *Store) Session() Session {
	return s.Snapshot().Session
}

// Token returns the current access token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Students: s.students.Clone(), Session: s.session.Clone()}
}

// persistToken is the only place the TokenStore is written.
func (s *Store) persistToken(a Action) {
	if s.tokens == nil {
		return
	}
	var err error
	switch a.Type {
	case TypeLoginSucceeded:
		err = s.tokens.Save(a.Token)
	case TypeLoginFailed, TypeLogout:
		err = s.tokens.Clear()
	default:
		return
	}
	if err != nil {
		s.logger.Warn("session token not persisted", zap.String("action", string(a.Type)), zap.Error(err))
	}
}
