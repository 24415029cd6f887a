package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/onlineexam/exam-service/internal/exam"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used by unit tests and when the
// service runs without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[primitive.ObjectID]*exam.Exam
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*exam.Exam)}
}

func (m *MemoryRepo) Create(_ context.Context, e *exam.Exam) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	e.ID = primitive.NewObjectID()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	m.mu.Lock()
	m.store[e.ID] = &cp
	m.mu.Unlock()
	return nil
}

// ListByOwner returns copies ordered by id, which follows creation order.
func (m *MemoryRepo) ListByOwner(_ context.Context, ownerID string) ([]*exam.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*exam.Exam, 0)
	for _, e := range m.store {
		if e.OwnerID == ownerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (m *MemoryRepo) UpdateOwned(_ context.Context, id, ownerID string, f exam.Fields) (*exam.Exam, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[oid]
	if !ok || e.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	f.Apply(e)
	e.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	cp := *e
	return &cp, nil
}

func (m *MemoryRepo) DeleteOwned(_ context.Context, id, ownerID string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[oid]
	if !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.store, oid)
	return nil
}
