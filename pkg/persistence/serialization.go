package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

// MarshalDistributionVersion serializes a DistributionVersion to JSON bytes.
func MarshalDistributionVersion(dv *types.DistributionVersion) ([]byte, error) {
	if dv == nil {
		return nil, fmt.Errorf("cannot marshal nil DistributionVersion")
	}

	data, err := json.Marshal(dv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal DistributionVersion to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalDistributionVersion deserializes a DistributionVersion from JSON bytes.
func UnmarshalDistributionVersion(data []byte) (*types.DistributionVersion, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var dv types.DistributionVersion
	if err := json.Unmarshal(data, &dv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to DistributionVersion: %w", err)
	}

	return &dv, nil
}
