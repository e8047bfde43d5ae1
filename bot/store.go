package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MineRobber9000/sctrivia/models"
)

// pending is one outstanding question with its expiry timer.
type pending struct {
	question *models.Question
	timer    *time.Timer
}

// questionStore maps a user to at most one outstanding question. A new
// question replaces any prior entry for that user.
type questionStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*pending
}

func newQuestionStore() *questionStore {
	return &questionStore{
		entries: make(map[uuid.UUID]*pending),
	}
}

// Put stores q for the user, replacing any previous entry and stopping its
// timer. After timeout, onExpire runs with q — but only if this exact entry
// is still stored, so answering or replacing the question suppresses the
// notice.
func (s *questionStore) Put(user uuid.UUID, q *models.Question, timeout time.Duration, onExpire func(*models.Question)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[user]; ok {
		old.timer.Stop()
	}

	p := &pending{question: q}
	p.timer = time.AfterFunc(timeout, func() {
		s.mu.Lock()
		cur, ok := s.entries[user]
		expired := ok && cur == p
		if expired {
			delete(s.entries, user)
		}
		s.mu.Unlock()

		if expired {
			onExpire(q)
		}
	})
	s.entries[user] = p
}

// Get returns the user's outstanding question without removing it.
func (s *questionStore) Get(user uuid.UUID) (*models.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.entries[user]
	if !ok {
		return nil, false
	}
	return p.question, true
}

// Remove clears the user's entry if it still holds q, stopping its timer.
func (s *questionStore) Remove(user uuid.UUID, q *models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.entries[user]
	if !ok || p.question != q {
		return
	}
	p.timer.Stop()
	delete(s.entries, user)
}
