package distribution_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/testutil"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

func TestSaveAndActivate(t *testing.T) {
	store := memory.NewMemoryPersistence()
	defer func() { _ = store.Close() }()

	_, err := distribution.LoadActive(store)
	require.ErrorIs(t, err, distribution.ErrNoActiveDistribution)

	d1 := testutil.CreateTestDistribution(t, 1, 4)
	d2 := testutil.CreateTestDistribution(t, 2, 6)
	require.NoError(t, distribution.Save(store, d1))
	require.NoError(t, distribution.Save(store, d2))

	// Saving alone does not activate
	_, err = distribution.LoadActive(store)
	require.ErrorIs(t, err, distribution.ErrNoActiveDistribution)

	activated, err := distribution.Activate(store, 1)
	require.NoError(t, err)
	assert.Equal(t, d1.Root(), activated.Root())

	active, err := distribution.LoadActive(store)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active.Version())
	assert.Equal(t, d1.Root(), active.Root())

	// Switching versions leaves the old one stored and unchanged
	_, err = distribution.Activate(store, 2)
	require.NoError(t, err)
	active, err = distribution.LoadActive(store)
	require.NoError(t, err)
	assert.Equal(t, d2.Root(), active.Root())

	old, err := distribution.Load(store, 1)
	require.NoError(t, err)
	assert.Equal(t, d1.Root(), old.Root())
}

func TestActivate_MissingVersion(t *testing.T) {
	store := memory.NewMemoryPersistence()
	defer func() { _ = store.Close() }()

	_, err := distribution.Activate(store, 42)
	require.ErrorIs(t, err, distribution.ErrVersionNotFound)

	v, err := store.GetActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestActivate_CorruptVersion(t *testing.T) {
	store := memory.NewMemoryPersistence()
	defer func() { _ = store.Close() }()

	v := testutil.CreateTestDistributionVersion(t, 3, 4)
	v.Root[0] ^= 0xFF
	require.NoError(t, store.SaveDistribution(v))

	_, err := distribution.Activate(store, 3)
	require.ErrorIs(t, err, distribution.ErrIntegrityMismatch)

	active, err := store.GetActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(0), active)
}

func TestLoadActive_ClosedStore(t *testing.T) {
	store := memory.NewMemoryPersistence()
	require.NoError(t, store.Close())

	_, err := distribution.LoadActive(store)
	require.Error(t, err)
	assert.NotErrorIs(t, err, distribution.ErrNoActiveDistribution)
}

func TestActivate_NonPositiveVersion(t *testing.T) {
	store := memory.NewMemoryPersistence()
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SaveDistribution(testutil.CreateTestDistributionVersion(t, 0, 2)))

	_, err := distribution.Activate(store, 0)
	require.Error(t, err)
	_, err = distribution.Activate(store, -1)
	require.Error(t, err)
}

func TestSave_ActiveVersionCannotBeReplaced(t *testing.T) {
	store := memory.NewMemoryPersistence()
	defer func() { _ = store.Close() }()

	d1, err := distribution.Build(7, []*types.WhitelistEntry{
		types.NewWhitelistEntry(common.HexToAddress("0xA1"), uint256.NewInt(100)),
	})
	require.NoError(t, err)
	require.NoError(t, distribution.Save(store, d1))
	_, err = distribution.Activate(store, 7)
	require.NoError(t, err)

	d2, err := distribution.Build(7, []*types.WhitelistEntry{
		types.NewWhitelistEntry(common.HexToAddress("0xB2"), uint256.NewInt(999)),
	})
	require.NoError(t, err)
	err = distribution.Save(store, d2)
	require.ErrorIs(t, err, persistence.ErrVersionExists)

	active, err := distribution.LoadActive(store)
	require.NoError(t, err)
	assert.Equal(t, d1.Root(), active.Root())
	assert.Equal(t, d1.ID(), active.ID())
}
