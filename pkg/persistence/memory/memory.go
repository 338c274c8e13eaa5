package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

// MemoryPersistence is an in-memory implementation of IDistributionPersistence.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Distribution storage: version -> DistributionVersion
	distributions map[int64]*types.DistributionVersion

	// Active version tracking
	activeVersion int64

	closed bool
}

var _ persistence.IDistributionPersistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer.
// Prints a loud warning since this should only be used for testing.
func NewMemoryPersistence() *MemoryPersistence {
	fmt.Println("⚠️  WARNING: Using in-memory persistence - ALL DATA WILL BE LOST ON RESTART")
	fmt.Println("⚠️  This should ONLY be used for testing. Set AIRDROP_PERSISTENCE_TYPE=badger for production")

	return &MemoryPersistence{
		distributions: make(map[int64]*types.DistributionVersion),
	}
}

// SaveDistribution persists a distribution version.
func (m *MemoryPersistence) SaveDistribution(version *types.DistributionVersion) error {
	if version == nil {
		return fmt.Errorf("cannot save nil DistributionVersion")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if existing, ok := m.distributions[version.Version]; ok {
		if !persistence.SameCommitment(existing, version) {
			return fmt.Errorf("%w: version %d", persistence.ErrVersionExists, version.Version)
		}
		return nil
	}

	m.distributions[version.Version] = version.Copy()
	return nil
}

// LoadDistribution retrieves a distribution version by number.
func (m *MemoryPersistence) LoadDistribution(version int64) (*types.DistributionVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	dv, exists := m.distributions[version]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return dv.Copy(), nil
}

// ListDistributions returns all distribution versions sorted by version number.
func (m *MemoryPersistence) ListDistributions() ([]*types.DistributionVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	versions := make([]int64, 0, len(m.distributions))
	for v := range m.distributions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i] < versions[j]
	})

	result := make([]*types.DistributionVersion, 0, len(versions))
	for _, v := range versions {
		result = append(result, m.distributions[v].Copy())
	}

	return result, nil
}

// DeleteDistribution removes a distribution version.
func (m *MemoryPersistence) DeleteDistribution(version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if version != 0 && version == m.activeVersion {
		return fmt.Errorf("%w: version %d", persistence.ErrVersionActive, version)
	}

	delete(m.distributions, version)
	return nil
}

// SetActiveVersion stores the active distribution version.
func (m *MemoryPersistence) SetActiveVersion(version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.activeVersion = version
	return nil
}

// GetActiveVersion retrieves the active distribution version.
func (m *MemoryPersistence) GetActiveVersion() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, fmt.Errorf("persistence layer is closed")
	}

	return m.activeVersion, nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return nil
}
