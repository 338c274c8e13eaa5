package distribution

import (
	"github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
)

var (
	ErrNoActiveDistribution = errors.New("no active distribution")
	ErrVersionNotFound      = errors.New("distribution version not found")
)

// Save persists d as a new version. Activation is a separate step.
func Save(store persistence.IDistributionPersistence, d *Distribution) error {
	if err := store.SaveDistribution(d.ToVersion()); err != nil {
		return errors.Wrapf(err, "failed to save distribution version %d", d.Version())
	}
	return nil
}

// Load reads a stored version and verifies its integrity.
func Load(store persistence.IDistributionPersistence, version int64) (*Distribution, error) {
	v, err := store.LoadDistribution(version)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load distribution version %d", version)
	}
	if v == nil {
		return nil, errors.Wrapf(ErrVersionNotFound, "version %d", version)
	}
	return FromVersion(v)
}

// Activate makes version the trusted distribution. The version must exist and
// pass the integrity check. Version 0 is reserved for "no active version".
func Activate(store persistence.IDistributionPersistence, version int64) (*Distribution, error) {
	if version <= 0 {
		return nil, errors.Errorf("cannot activate version %d: versions must be positive", version)
	}
	d, err := Load(store, version)
	if err != nil {
		return nil, err
	}
	if err := store.SetActiveVersion(version); err != nil {
		return nil, errors.Wrapf(err, "failed to activate distribution version %d", version)
	}
	return d, nil
}

// LoadActive returns the active distribution, or ErrNoActiveDistribution if none is set.
func LoadActive(store persistence.IDistributionPersistence) (*Distribution, error) {
	active, err := store.GetActiveVersion()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read active version")
	}
	if active == 0 {
		return nil, ErrNoActiveDistribution
	}
	return Load(store, active)
}
