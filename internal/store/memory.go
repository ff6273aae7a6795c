package store

import (
	"context"
	"sync"

	"github.com/citypulse/trafficguide/internal/models"
)

// defaultMemoryCapacity bounds the in-memory audit trail
const defaultMemoryCapacity = 1000

// InMemoryStore implements Store with a bounded in-memory record list.
// Oldest records are evicted once capacity is reached.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  []models.AnalysisRecord
	capacity int
}

// NewInMemoryStore creates an in-memory store holding at most capacity records
func NewInMemoryStore(capacity int) *InMemoryStore {
	if capacity < 1 {
		capacity = defaultMemoryCapacity
	}
	return &InMemoryStore{capacity: capacity}
}

// SaveAnalysis appends a record, evicting the oldest when full
func (s *InMemoryStore) SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
	return nil
}

// RecentAnalyses returns up to limit records, newest first
func (s *InMemoryStore) RecentAnalyses(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}

	result := make([]models.AnalysisRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.records[i])
	}
	return result, nil
}

// GetAnalysis retrieves a single record by ID
func (s *InMemoryStore) GetAnalysis(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].ID == id {
			record := s.records[i]
			return &record, nil
		}
	}
	return nil, nil
}

// Health always returns nil for the in-memory store
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}
