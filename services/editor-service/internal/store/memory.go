package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hospitalcms/backend/internal/session"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the idle session sweep once a minute
const DefaultSweepSchedule = "@every 1m"

// memoryStore keeps sessions in process memory and drops idle ones on a schedule
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewMemoryStore creates an in-memory session store with the given idle TTL
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *memoryStore {
	return &memoryStore{
		sessions: make(map[string]*session.Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns a session by id
func (s *memoryStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || s.expired(sess) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Save stores a session
func (s *memoryStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID()] = sess
	return nil
}

// Delete removes a session. Removing a missing session is not an error.
func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many were removed
func (s *memoryStore) Sweep() int {
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

// Start schedules the idle session sweep
func (s *memoryStore) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, s.sweepJob); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.logger.Info("Session sweeper started", zap.String("schedule", schedule), zap.Duration("ttl", s.ttl))
	return nil
}

// Stop stops the sweeper and waits for a running sweep to finish
func (s *memoryStore) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("Session sweeper stopped")
}

func (s *memoryStore) sweepJob() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Session sweep panicked", zap.Any("panic", r))
		}
	}()

	if removed := s.Sweep(); removed > 0 {
		s.logger.Info("Swept idle sessions", zap.Int("count", removed))
	}
}

func (s *memoryStore) expired(sess *session.Session) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(sess.UpdatedAt()) > s.ttl
}
