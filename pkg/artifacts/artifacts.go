package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

var (
	// ErrInvalidDigest is returned when a root or proof element is not 0x-prefixed 32-byte hex.
	ErrInvalidDigest = errors.New("invalid digest")

	// ErrDuplicateAddress is returned when two whitelist entries would share a key in the proofs artifact.
	ErrDuplicateAddress = errors.New("duplicate address in proofs artifact")

	// ErrEntryCountMismatch is returned when the whitelist and the tree disagree on size.
	ErrEntryCountMismatch = errors.New("whitelist size does not match tree leaf count")
)

// EncodeDigest renders a digest as 0x-prefixed lowercase hex.
func EncodeDigest(d [32]byte) string {
	return hexutil.Encode(d[:])
}

// DecodeDigest parses a 0x-prefixed 32-byte hex string.
func DecodeDigest(s string) ([32]byte, error) {
	var d [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return d, errors.Wrapf(ErrInvalidDigest, "%q: %v", s, err)
	}
	if len(b) != merkle.HashLength {
		return d, errors.Wrapf(ErrInvalidDigest, "%q: expected %d bytes, got %d", s, merkle.HashLength, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// EncodeProof renders proof elements as hex strings.
func EncodeProof(proof [][32]byte) []string {
	out := make([]string, len(proof))
	for i, p := range proof {
		out[i] = EncodeDigest(p)
	}
	return out
}

// DecodeProof parses hex proof elements. A structurally invalid element fails
// with merkle.ErrMalformedProof.
func DecodeProof(proof []string) ([][32]byte, error) {
	out := make([][32]byte, len(proof))
	for i, p := range proof {
		d, err := DecodeDigest(p)
		if err != nil {
			return nil, errors.Wrapf(merkle.ErrMalformedProof, "proof element %d: %v", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// NewRootArtifact builds the merkle-root.json payload.
func NewRootArtifact(root [32]byte) *types.RootArtifact {
	return &types.RootArtifact{Root: EncodeDigest(root)}
}

// NewProofsArtifact builds the merkle-proofs.json payload for every whitelist entry.
// entries must be the whitelist the tree was built from, in the same order.
func NewProofsArtifact(entries []*types.WhitelistEntry, tree *merkle.MerkleTree) (types.ProofsArtifact, error) {
	if len(entries) != tree.LeafCount() {
		return nil, errors.Wrapf(ErrEntryCountMismatch, "%d entries, %d leaves", len(entries), tree.LeafCount())
	}

	proofs := make(types.ProofsArtifact, len(entries))
	for i, entry := range entries {
		key := entry.AddressKey()
		if _, exists := proofs[key]; exists {
			return nil, errors.Wrapf(ErrDuplicateAddress, "%s (entry %d)", key, i)
		}

		proof, err := tree.GenerateProof(i)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to generate proof for entry %d", i)
		}

		proofs[key] = types.ProofEntry{
			Amount: entry.AmountString(),
			Proof:  EncodeProof(proof.Proof),
		}
	}
	return proofs, nil
}

// ParseRootArtifact decodes merkle-root.json content and returns the root.
func ParseRootArtifact(data []byte) ([32]byte, error) {
	var ra types.RootArtifact
	if err := json.Unmarshal(data, &ra); err != nil {
		return [32]byte{}, errors.Wrap(err, "failed to decode root artifact")
	}
	return DecodeDigest(ra.Root)
}

// ParseProofsArtifact decodes merkle-proofs.json content and validates every proof.
func ParseProofsArtifact(data []byte) (types.ProofsArtifact, error) {
	var pa types.ProofsArtifact
	if err := json.Unmarshal(data, &pa); err != nil {
		return nil, errors.Wrap(err, "failed to decode proofs artifact")
	}
	for addr, entry := range pa {
		if _, err := DecodeProof(entry.Proof); err != nil {
			return nil, errors.Wrapf(err, "address %s", addr)
		}
	}
	return pa, nil
}

// WriteRootArtifact writes merkle-root.json style output to path.
func WriteRootArtifact(path string, root [32]byte) error {
	return writeJSON(path, NewRootArtifact(root))
}

// WriteProofsArtifact writes merkle-proofs.json style output to path.
func WriteProofsArtifact(path string, proofs types.ProofsArtifact) error {
	return writeJSON(path, proofs)
}

// ReadRootArtifact reads and parses a root artifact file.
func ReadRootArtifact(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, errors.Wrapf(err, "failed to read root artifact %s", path)
	}
	return ParseRootArtifact(data)
}

// ReadProofsArtifact reads and parses a proofs artifact file.
func ReadProofsArtifact(path string) (types.ProofsArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read proofs artifact %s", path)
	}
	return ParseProofsArtifact(data)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode artifact")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	// Write to a temp file and rename so readers never see a torn artifact
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to move artifact into place at %s", path)
	}
	return nil
}
