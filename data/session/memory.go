package session

import (
	"context"
	"sync"

	"github.com/KotFed0t/portfolio_xray/internal/model"
)

// MemorySession keeps chat preferences in process when Redis is disabled.
type MemorySession struct {
	mu       sync.RWMutex
	sessions map[int64]model.Session
}

func NewMemorySession() *MemorySession {
	return &MemorySession{sessions: make(map[int64]model.Session)}
}

func (s *MemorySession) GetSession(_ context.Context, chatID int64) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[chatID]
	if !ok {
		return model.DefaultSession(), nil
	}
	sess.Components = cloneComponents(sess.Components)
	return sess, nil
}

func (s *MemorySession) SetSession(_ context.Context, chatID int64, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.Components = cloneComponents(sess.Components)
	s.sessions[chatID] = sess
	return nil
}

// cloneComponents keeps callers from editing the stored sandbox in place.
func cloneComponents(components []model.Component) []model.Component {
	if components == nil {
		return nil
	}
	return append([]model.Component(nil), components...)
}
