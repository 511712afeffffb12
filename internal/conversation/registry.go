package conversation

import (
	"sync"
	"time"

	"github.com/askmatsya/bolt/internal/models"
)

// Session is one shopper's in-memory conversation.
type Session struct {
	ID       string
	Language models.Language
	Turns    []models.Turn
	LastSeen time.Time
}

// Registry keeps sessions in memory. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns a copy of the session.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	cp := *s
	cp.Turns = append([]models.Turn(nil), s.Turns...)
	return cp, true
}

// Language returns the session's language, or def for an unknown session.
func (r *Registry) Language(id string, def models.Language) models.Language {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && s.Language != "" {
		return s.Language
	}
	return def
}

// Append adds turns to the session, creating it if needed, and records lang
// as the language for later turns.
func (r *Registry) Append(id string, lang models.Language, now time.Time, turns ...models.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{ID: id}
		r.sessions[id] = s
	}
	s.Language = lang
	s.LastSeen = now
	s.Turns = append(s.Turns, turns...)
}

// Prune drops sessions not seen since before and returns how many were removed.
func (r *Registry) Prune(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.LastSeen.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
