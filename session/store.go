// Package session keeps uploaded tables in memory between dashboard requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/logger"
)

var ErrNotFound = errors.New("session not found or expired")

// Session owns one uploaded table and the last column configuration used on it.
type Session struct {
	ID        string
	FileName  string
	Table     *models.Table
	Schema    models.Schema
	ChatID    int64
	UpdatedAt time.Time
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores t under a fresh id.
func (s *Store) Create(fileName string, t *models.Table, schema models.Schema) *Session {
	sess := &Session{
		ID:        uuid.NewV4().String(),
		FileName:  fileName,
		Table:     t,
		Schema:    schema,
		UpdatedAt: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a copy of the session and refreshes its TTL.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		delete(s.sessions, id)
		return Session{}, ErrNotFound
	}
	sess.UpdatedAt = s.now()
	return *sess, nil
}

// SetSchema remembers the last valid column configuration.
func (s *Store) SetSchema(id string, schema models.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Schema = schema
	sess.UpdatedAt = s.now()
	return nil
}

// Link attaches a telegram chat waiting for a web upload.
func (s *Store) Link(id string, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.ChatID = chatID
	return nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().After(sess.UpdatedAt.Add(s.ttl))
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	log := logger.FromContext(ctx).WithComponent("session")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Info("expired sessions removed", "count", n, "active", s.Len())
			}
		}
	}
}
