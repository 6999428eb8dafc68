package contextstore

import (
	"context"
	"sync"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Memory is the in-process Store: a mutex-guarded map for the single-node
// deployment. State lives for the process lifetime only.
type Memory struct {
	mu       sync.RWMutex
	contexts map[string]*models.UserContext
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{contexts: make(map[string]*models.UserContext)}
}

func (m *Memory) Get(ctx context.Context, userID string) (*models.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uctx, ok := m.contexts[userID]
	if !ok {
		uctx = models.NewUserContext(userID)
		m.contexts[userID] = uctx
	}
	return cloneContext(uctx), nil
}

func (m *Memory) Update(ctx context.Context, uctx *models.UserContext) error {
	cp := cloneContext(uctx)
	cp.UpdatedAt = time.Now().UTC()

	m.mu.Lock()
	m.contexts[cp.UserID] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) AppendMessage(ctx context.Context, userID string, role models.Role, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uctx, ok := m.contexts[userID]
	if !ok {
		uctx = models.NewUserContext(userID)
		m.contexts[userID] = uctx
	}
	uctx.Append(role, text)
	uctx.UpdatedAt = time.Now().UTC()
	return nil
}

// cloneContext copies the context so callers never share slices or
// pointers with the stored value.
func cloneContext(uctx *models.UserContext) *models.UserContext {
	cp := *uctx
	if uctx.LastCoordinates != nil {
		coords := *uctx.LastCoordinates
		cp.LastCoordinates = &coords
	}
	if len(uctx.History) > 0 {
		cp.History = make([]models.ContextMessage, len(uctx.History))
		copy(cp.History, uctx.History)
	}
	return &cp
}
