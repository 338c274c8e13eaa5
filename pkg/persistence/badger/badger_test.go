package badger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/logger"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/testutil"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

func newTestPersistence(t *testing.T, dir string) *BadgerPersistence {
	t.Helper()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bp, err := NewBadgerPersistence(dir, testLogger)
	require.NoError(t, err)
	return bp
}

func TestBadgerPersistence_SaveAndLoadDistribution(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	version := testutil.CreateTestDistributionVersion(t, 1234567890, 5)

	err := bp.SaveDistribution(version)
	require.NoError(t, err)

	loaded, err := bp.LoadDistribution(version.Version)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, version.Version, loaded.Version)
	assert.Equal(t, version.ID, loaded.ID)
	assert.Equal(t, version.Root, loaded.Root)
	assert.Equal(t, version.WhitelistHash, loaded.WhitelistHash)
	assert.Equal(t, version.CreatedAt, loaded.CreatedAt)
	assert.Equal(t, version.Entries, loaded.Entries)
}

func TestBadgerPersistence_LoadDistribution_NotFound(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	loaded, err := bp.LoadDistribution(9999999)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBadgerPersistence_SaveDistribution_Nil(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	err := bp.SaveDistribution(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil DistributionVersion")
}

func TestBadgerPersistence_DeleteDistribution(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	err := bp.SaveDistribution(testutil.CreateTestDistributionVersion(t, 111, 2))
	require.NoError(t, err)

	loaded, err := bp.LoadDistribution(111)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	err = bp.DeleteDistribution(111)
	require.NoError(t, err)

	loaded, err = bp.LoadDistribution(111)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBadgerPersistence_DeleteDistribution_Idempotent(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	err := bp.DeleteDistribution(9999)
	require.NoError(t, err)
}

func TestBadgerPersistence_ListDistributions(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	for _, v := range []int64{300, 100, 400, 0, 200} {
		err := bp.SaveDistribution(testutil.CreateTestDistributionVersion(t, v, 2))
		require.NoError(t, err)
	}

	listed, err := bp.ListDistributions()
	require.NoError(t, err)
	require.Len(t, listed, 5)

	for i := 0; i < len(listed)-1; i++ {
		assert.Less(t, listed[i].Version, listed[i+1].Version)
	}
	assert.Equal(t, int64(0), listed[0].Version)
	assert.Equal(t, int64(400), listed[4].Version)
}

func TestBadgerPersistence_ListDistributions_Empty(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	listed, err := bp.ListDistributions()
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestBadgerPersistence_ActiveVersionTracking(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	active, err := bp.GetActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(0), active)

	err = bp.SetActiveVersion(1234567890)
	require.NoError(t, err)

	active, err = bp.GetActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), active)

	err = bp.SetActiveVersion(9876543210)
	require.NoError(t, err)

	active, err = bp.GetActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(9876543210), active)
}

func TestBadgerPersistence_Close(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())

	err := bp.Close()
	require.NoError(t, err)

	err = bp.SaveDistribution(&types.DistributionVersion{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	_, err = bp.LoadDistribution(123)
	require.Error(t, err)

	_, err = bp.GetActiveVersion()
	require.Error(t, err)
}

func TestBadgerPersistence_Close_Idempotent(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())

	err := bp.Close()
	require.NoError(t, err)

	err = bp.Close()
	require.NoError(t, err)
}

func TestBadgerPersistence_HealthCheck(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	err := bp.HealthCheck()
	require.NoError(t, err)

	err = bp.Close()
	require.NoError(t, err)
	err = bp.HealthCheck()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestBadgerPersistence_ThreadSafety(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	var wg sync.WaitGroup
	numGoroutines := 5
	numOperations := 20

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				version := &types.DistributionVersion{
					Version: int64(id*1000 + j),
					Entries: testutil.CreateTestWhitelist(1),
				}
				assert.NoError(t, bp.SaveDistribution(version))
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				_, err := bp.ListDistributions()
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	listed, err := bp.ListDistributions()
	require.NoError(t, err)
	assert.Len(t, listed, numGoroutines*numOperations)
}

func TestBadgerPersistence_Persistence_AcrossRestarts(t *testing.T) {
	tmpDir := t.TempDir()

	// First instance - save data
	bp1 := newTestPersistence(t, tmpDir)

	version := testutil.CreateTestDistributionVersion(t, 99999, 4)
	err := bp1.SaveDistribution(version)
	require.NoError(t, err)

	err = bp1.SetActiveVersion(99999)
	require.NoError(t, err)

	err = bp1.Close()
	require.NoError(t, err)

	// Second instance - verify data persisted
	bp2 := newTestPersistence(t, tmpDir)
	defer func() { _ = bp2.Close() }()

	loaded, err := bp2.LoadDistribution(99999)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, version.Root, loaded.Root)
	assert.Equal(t, version.Entries, loaded.Entries)

	active, err := bp2.GetActiveVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(99999), active)
}

func TestBadgerLoggerAdapter(t *testing.T) {
	adapter := newBadgerLoggerAdapter(zap.NewNop())
	adapter.Errorf("error %d", 1)
	adapter.Warningf("warning %s", "x")
	adapter.Infof("info")
	adapter.Debugf("debug")
}

func TestBadgerPersistence_SaveDistribution_ExistingVersion(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()
	original := testutil.CreateTestDistributionVersion(t, 7, 1)
	require.NoError(t, bp.SaveDistribution(original))
	require.NoError(t, bp.SetActiveVersion(7))

	// Same commitment under a new ID keeps the stored record
	rebuilt := testutil.CreateTestDistributionVersion(t, 7, 1)
	require.NotEqual(t, original.ID, rebuilt.ID)
	require.NoError(t, bp.SaveDistribution(rebuilt))

	// Different content under the active number is rejected
	replacement := testutil.CreateTestDistributionVersion(t, 7, 3)
	err := bp.SaveDistribution(replacement)
	require.ErrorIs(t, err, persistence.ErrVersionExists)

	loaded, err := bp.LoadDistribution(7)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, original.ID, loaded.ID)
	assert.Equal(t, original.Root, loaded.Root)
	assert.Equal(t, original.Entries, loaded.Entries)
}

func TestBadgerPersistence_DeleteDistribution_Active(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()
	require.NoError(t, bp.SaveDistribution(testutil.CreateTestDistributionVersion(t, 5, 2)))
	require.NoError(t, bp.SetActiveVersion(5))

	err := bp.DeleteDistribution(5)
	require.ErrorIs(t, err, persistence.ErrVersionActive)

	loaded, err := bp.LoadDistribution(5)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	// Deletable once another version is active
	require.NoError(t, bp.SetActiveVersion(0))
	require.NoError(t, bp.DeleteDistribution(5))
}
