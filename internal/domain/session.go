package domain

import (
	"sync"
	"time"
)

// Session binds one live connection to its project. The project id is set
// once at connect time from the client-supplied query parameter and never
// changes; a session belongs to exactly one room for its entire lifetime.
type Session struct {
	ID           string
	ProjectID    string
	CreatedAt    time.Time
	LastActiveAt time.Time
	mu           sync.RWMutex
}

// NewSession creates a session bound to a project.
func NewSession(id, projectID string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		ProjectID:    projectID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}

// Project returns the project id the session is bound to.
func (s *Session) Project() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ProjectID
}
