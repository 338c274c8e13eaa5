package distribution

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/artifacts"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

var (
	ErrAddressNotFound   = errors.New("address not in distribution")
	ErrIntegrityMismatch = errors.New("stored distribution does not match its whitelist")
)

// Distribution is one immutable whitelist revision together with its merkle tree.
// A changed whitelist produces a new Distribution; an existing one is never updated.
type Distribution struct {
	version       int64
	id            string
	createdAt     int64
	entries       []*types.WhitelistEntry
	tree          *merkle.MerkleTree
	whitelistHash [32]byte

	// first index of each address, for proof lookup
	index map[common.Address]int
}

// Build hashes the whitelist, builds the merkle tree and assigns a fresh ID.
// Fails with merkle.ErrEmptyInput for an empty whitelist.
func Build(version int64, entries []*types.WhitelistEntry) (*Distribution, error) {
	return build(version, uuid.New().String(), time.Now().Unix(), entries)
}

// FromVersion rebuilds a Distribution from a stored version and checks that the
// recomputed root and whitelist hash match what was stored.
func FromVersion(v *types.DistributionVersion) (*Distribution, error) {
	if v == nil {
		return nil, errors.New("cannot load nil DistributionVersion")
	}

	d, err := build(v.Version, v.ID, v.CreatedAt, v.Entries)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to rebuild distribution version %d", v.Version)
	}

	if common.Hash(d.Root()) != v.Root {
		return nil, errors.Wrapf(ErrIntegrityMismatch, "version %d: root %s, recomputed %s",
			v.Version, v.Root.Hex(), common.Hash(d.Root()).Hex())
	}
	if common.Hash(d.whitelistHash) != v.WhitelistHash {
		return nil, errors.Wrapf(ErrIntegrityMismatch, "version %d: whitelist hash %s, recomputed %s",
			v.Version, v.WhitelistHash.Hex(), common.Hash(d.whitelistHash).Hex())
	}
	return d, nil
}

func build(version int64, id string, createdAt int64, entries []*types.WhitelistEntry) (*Distribution, error) {
	owned := make([]*types.WhitelistEntry, len(entries))
	for i, e := range entries {
		if e == nil || e.Amount == nil {
			return nil, errors.Errorf("whitelist entry %d is incomplete", i)
		}
		owned[i] = e.Copy()
	}

	leaves := merkle.HashWhitelist(owned)
	tree, err := merkle.BuildMerkleTree(leaves)
	if err != nil {
		return nil, err
	}

	index := make(map[common.Address]int, len(owned))
	for i, e := range owned {
		if _, ok := index[e.Address]; !ok {
			index[e.Address] = i
		}
	}

	return &Distribution{
		version:       version,
		id:            id,
		createdAt:     createdAt,
		entries:       owned,
		tree:          tree,
		whitelistHash: HashLeaves(leaves),
		index:         index,
	}, nil
}

// HashLeaves commits to the ordered leaf sequence: keccak256(leaf_0 || ... || leaf_n-1).
func HashLeaves(leaves [][32]byte) [32]byte {
	data := make([]byte, 0, len(leaves)*merkle.HashLength)
	for _, l := range leaves {
		data = append(data, l[:]...)
	}
	return [32]byte(crypto.Keccak256Hash(data))
}

func (d *Distribution) Version() int64 {
	return d.version
}

func (d *Distribution) ID() string {
	return d.id
}

func (d *Distribution) CreatedAt() int64 {
	return d.createdAt
}

func (d *Distribution) Root() [32]byte {
	return d.tree.Root()
}

func (d *Distribution) WhitelistHash() [32]byte {
	return d.whitelistHash
}

func (d *Distribution) Tree() *merkle.MerkleTree {
	return d.tree
}

func (d *Distribution) EntryCount() int {
	return len(d.entries)
}

// Entries returns a copy of the whitelist in leaf order.
func (d *Distribution) Entries() []*types.WhitelistEntry {
	out := make([]*types.WhitelistEntry, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Copy()
	}
	return out
}

// ProofFor returns the whitelist entry and proof for the first occurrence of address.
func (d *Distribution) ProofFor(address common.Address) (*types.WhitelistEntry, *merkle.MerkleProof, error) {
	i, ok := d.index[address]
	if !ok {
		return nil, nil, errors.Wrapf(ErrAddressNotFound, "%s", address.Hex())
	}
	proof, err := d.tree.GenerateProof(i)
	if err != nil {
		return nil, nil, err
	}
	return d.entries[i].Copy(), proof, nil
}

// RootArtifact returns the merkle-root.json payload.
func (d *Distribution) RootArtifact() *types.RootArtifact {
	return artifacts.NewRootArtifact(d.Root())
}

// ProofsArtifact returns the merkle-proofs.json payload.
func (d *Distribution) ProofsArtifact() (types.ProofsArtifact, error) {
	return artifacts.NewProofsArtifact(d.entries, d.tree)
}

// ToVersion converts the distribution to its persisted form.
func (d *Distribution) ToVersion() *types.DistributionVersion {
	return &types.DistributionVersion{
		Version:       d.version,
		ID:            d.id,
		WhitelistHash: common.Hash(d.whitelistHash),
		Root:          common.Hash(d.Root()),
		Entries:       d.Entries(),
		CreatedAt:     d.createdAt,
	}
}
