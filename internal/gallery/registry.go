package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/claes/vidgallery/internal/store"
)

// Registry holds the live session of every browser. A full page load
// replaces the browser's session, which is what bounds a page lifetime.
type Registry struct {
	newSession func() *Session
	store      store.Store
	log        logrus.FieldLogger
	idle       time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	s        *Session
	lastSeen time.Time
}

// NewRegistry returns a registry building sessions with newSession and
// persisting view state to st. Sessions idle longer than idle are
// dropped; zero keeps them forever.
func NewRegistry(newSession func() *Session, st store.Store, idle time.Duration, log logrus.FieldLogger) *Registry {
	if st == nil {
		st = store.NewMemory()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		newSession: newSession,
		store:      st,
		log:        log,
		idle:       idle,
		now:        time.Now,
		sessions:   make(map[string]*entry),
	}
}

// Begin starts a new page lifetime for id: a fresh session is created,
// the gate is evaluated and the saved search and player are restored.
func (r *Registry) Begin(ctx context.Context, id string, authed bool) (*Session, error) {
	s := r.newSession()
	err := s.Init(ctx, authed)
	if s.View() == ViewApp && err == nil {
		r.restore(ctx, id, s)
	}

	r.mu.Lock()
	r.evictLocked()
	r.sessions[id] = &entry{s: s, lastSeen: r.now()}
	r.mu.Unlock()
	return s, err
}

func (r *Registry) restore(ctx context.Context, id string, s *Session) {
	st, ok, err := r.store.Load(ctx, id)
	if err != nil {
		r.log.WithError(err).WithField("browser", id).Warn("view state unavailable")
		return
	}
	if !ok {
		return
	}
	if st.Query != "" {
		s.ApplyFilter(st.Query)
	}
	if st.PlayerOpen && st.PlayerSrc != "" {
		s.RestorePlayer(Card{Video: st.PlayerSrc, Title: st.PlayerTitle})
	}
}

// Get returns the live session of id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if r.expired(e) {
		delete(r.sessions, id)
		return nil, false
	}
	e.lastSeen = r.now()
	return e.s, true
}

// Save persists the view state of s for id.
func (r *Registry) Save(ctx context.Context, id string, s *Session) {
	st := s.Snapshot()
	st.UpdatedAt = r.now()
	if err := r.store.Save(ctx, id, st); err != nil {
		r.log.WithError(err).WithField("browser", id).Warn("view state not saved")
	}
}

// End forgets the session and saved state of id.
func (r *Registry) End(ctx context.Context, id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	if err := r.store.Delete(ctx, id); err != nil {
		r.log.WithError(err).WithField("browser", id).Warn("view state not deleted")
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(e *entry) bool {
	return r.idle > 0 && r.now().Sub(e.lastSeen) > r.idle
}

func (r *Registry) evictLocked() {
	if r.idle <= 0 {
		return
	}
	for id, e := range r.sessions {
		if r.expired(e) {
			delete(r.sessions, id)
		}
	}
}
