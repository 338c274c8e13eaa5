package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/whitelist"
)

// CreateTestAddress returns a deterministic address for index i
func CreateTestAddress(i int) common.Address {
	return common.BigToAddress(uint256.NewInt(uint64(0x1000 + i)).ToBig())
}

// CreateTestWhitelist creates n entries with distinct addresses and amounts 100, 200, ...
func CreateTestWhitelist(n int) []*types.WhitelistEntry {
	entries := make([]*types.WhitelistEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = types.NewWhitelistEntry(CreateTestAddress(i), uint256.NewInt(uint64(100*(i+1))))
	}
	return entries
}

// CreateTestDistribution builds a distribution over an n entry test whitelist
func CreateTestDistribution(t *testing.T, version int64, n int) *distribution.Distribution {
	t.Helper()
	d, err := distribution.Build(version, CreateTestWhitelist(n))
	if err != nil {
		t.Fatalf("Failed to build test distribution: %v", err)
	}
	return d
}

// CreateTestDistributionVersion returns the persisted form of a test distribution
func CreateTestDistributionVersion(t *testing.T, version int64, n int) *types.DistributionVersion {
	t.Helper()
	return CreateTestDistribution(t, version, n).ToVersion()
}

// WriteTestWhitelist writes entries as a whitelist file in dir and returns its path
func WriteTestWhitelist(t *testing.T, dir string, entries []*types.WhitelistEntry) string {
	t.Helper()
	data, err := whitelist.Marshal(entries)
	if err != nil {
		t.Fatalf("Failed to marshal whitelist: %v", err)
	}
	path := filepath.Join(dir, "whitelist.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write whitelist: %v", err)
	}
	return path
}
