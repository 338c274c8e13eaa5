package persistence

import (
	"errors"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

var (
	// ErrVersionExists is returned when saving a version number that already holds a
	// different root or whitelist hash.
	ErrVersionExists = errors.New("distribution version already exists with different content")

	// ErrVersionActive is returned when deleting the active version.
	ErrVersionActive = errors.New("cannot delete the active distribution version")
)

// SameCommitment reports whether two versions commit to the same whitelist and root.
func SameCommitment(a, b *types.DistributionVersion) bool {
	return a.Root == b.Root && a.WhitelistHash == b.WhitelistHash
}

// IDistributionPersistence persists distribution versions and tracks which one is active.
// All implementations must be thread-safe.
//
// Versions are immutable once saved: a changed whitelist is saved as a new version,
// and SetActiveVersion is the single atomic step that makes it the trusted one.
type IDistributionPersistence interface {
	// Distribution Version Management

	// SaveDistribution persists a distribution version indexed by its Version number.
	// Saving a version whose number is already stored with the same root and whitelist
	// hash is a no-op and the stored record is kept. Any other content under an existing
	// number fails with ErrVersionExists; the stored record is never replaced.
	SaveDistribution(version *types.DistributionVersion) error

	// LoadDistribution retrieves a distribution version.
	// Returns nil if version doesn't exist, error only on storage failure.
	LoadDistribution(version int64) (*types.DistributionVersion, error)

	// ListDistributions returns all persisted versions sorted by Version (ascending).
	// Returns empty slice if no versions exist, error only on storage failure.
	ListDistributions() ([]*types.DistributionVersion, error)

	// DeleteDistribution removes a distribution version.
	// Idempotent - returns nil if version doesn't exist.
	// Fails with ErrVersionActive if version is the active one.
	DeleteDistribution(version int64) error

	// Active Version Tracking

	// SetActiveVersion stores which distribution version is currently trusted.
	// Setting 0 clears the active version.
	SetActiveVersion(version int64) error

	// GetActiveVersion returns the active version number.
	// Returns 0 if no active version is set.
	GetActiveVersion() (int64, error)

	// Lifecycle Management

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}
