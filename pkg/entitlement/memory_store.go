package entitlement

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memoryStore is an in-memory EntitlementStore for tests and local
// development. A single mutex serializes all writers, which is the
// in-memory equivalent of the partial unique indexes the SQL store
// relies on: both invariant checks and the write happen under one
// critical section.
type memoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]SubscriptionRecord // keyed by user ID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() EntitlementStore {
	return &memoryStore{records: make(map[uuid.UUID][]SubscriptionRecord)}
}

func (s *memoryStore) GetActiveRecord(ctx context.Context, userID uuid.UUID) (*SubscriptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records[userID] {
		if s.records[userID][i].Status == StatusActive {
			rec := s.records[userID][i]
			return &rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (s *memoryStore) GetHistory(ctx context.Context, userID uuid.UUID) ([]SubscriptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]SubscriptionRecord, len(s.records[userID]))
	copy(history, s.records[userID])
	sort.Slice(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history, nil
}

func (s *memoryStore) UpsertRecord(ctx context.Context, record *SubscriptionRecord) error {
	if record == nil || record.ID == uuid.Nil || record.UserID == uuid.Nil {
		return ErrInvalidEvent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.records[record.UserID]
	for i := range existing {
		if existing[i].ID == record.ID {
			continue
		}
		if record.Status == StatusActive && existing[i].Status == StatusActive {
			return ErrActiveRecordExists
		}
		if record.HasTrial() && existing[i].HasTrial() {
			return ErrTrialAlreadyGranted
		}
	}

	for i := range existing {
		if existing[i].ID == record.ID {
			existing[i] = *record
			return nil
		}
	}
	s.records[record.UserID] = append(existing, *record)
	return nil
}
