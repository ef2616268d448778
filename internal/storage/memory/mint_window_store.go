package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-decision-core/internal/domain"
	"solana-decision-core/internal/storage"
)

// MintWindowStore is an in-memory implementation of storage.MintWindowStore.
type MintWindowStore struct {
	mu   sync.RWMutex
	data map[domain.Address]*domain.MintFeatures
}

// NewMintWindowStore creates a new in-memory mint window store.
func NewMintWindowStore() *MintWindowStore {
	return &MintWindowStore{
		data: make(map[domain.Address]*domain.MintFeatures),
	}
}

// Compile-time interface check.
var _ storage.MintWindowStore = (*MintWindowStore)(nil)

// Put inserts or replaces the window row for a mint.
func (s *MintWindowStore) Put(_ context.Context, m *domain.MintFeatures) error {
	if m == nil || m.Mint.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	row := *m
	if row.LastUpdate.IsZero() {
		row.LastUpdate = time.Now()
	}
	s.data[m.Mint] = &row
	return nil
}

// TopByVolume retrieves the top mints by 60s volume, most active first.
func (s *MintWindowStore) TopByVolume(_ context.Context, limit int) ([]*domain.MintFeatures, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MintFeatures, 0, len(s.data))
	for _, m := range s.data {
		row := *m
		result = append(result, &row)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Vol60s > result[j].Vol60s
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByMint retrieves the window row for one mint.
func (s *MintWindowStore) GetByMint(_ context.Context, mint domain.Address) (*domain.MintFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	row := *m
	return &row, nil
}
