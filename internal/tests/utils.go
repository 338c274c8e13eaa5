package tests

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/whitelist"
)

// GetProjectRootPath walks up from the working directory to the directory holding go.mod.
func GetProjectRootPath() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	p := wd
	for i := 0; i < 10; i++ {
		if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	panic(fmt.Sprintf("Could not find project root path from %s", wd))
}

// GetTestWhitelistPath returns the path of the shared whitelist fixture.
func GetTestWhitelistPath(projectRoot string) string {
	return filepath.Join(projectRoot, "internal", "testData", "whitelist.json")
}

// ReadTestWhitelist loads the shared whitelist fixture.
func ReadTestWhitelist(projectRoot string) ([]*types.WhitelistEntry, error) {
	entries, err := whitelist.LoadWhitelist(GetTestWhitelistPath(projectRoot))
	if err != nil {
		return nil, fmt.Errorf("failed to read test whitelist: %w", err)
	}
	return entries, nil
}
