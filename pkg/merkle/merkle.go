package merkle

import (
	"bytes"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

// HashLength is the width of every digest in the tree.
const HashLength = 32

// BuildMerkleTree creates a binary merkle tree from ordered leaf digests.
// Leaf order is preserved: leaves[i] stays at index i.
//
// Adjacent digests are paired left to right and combined with HashPair.
// If a level has an odd number of nodes, the last node is carried up to the
// next level unchanged (it is neither hashed nor duplicated).
func BuildMerkleTree(leaves [][32]byte) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}

	// Copy leaves so the tree never aliases caller memory
	base := make([][32]byte, len(leaves))
	copy(base, leaves)

	levels := make([][][32]byte, 0, treeDepth(len(base))+1)
	levels = append(levels, base)

	currentLevel := base
	for len(currentLevel) > 1 {
		nextLevel := make([][32]byte, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			if i+1 < len(currentLevel) {
				nextLevel = append(nextLevel, HashPair(currentLevel[i], currentLevel[i+1]))
			} else {
				// Odd node out, promote as-is
				nextLevel = append(nextLevel, currentLevel[i])
			}
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &MerkleTree{levels: levels}, nil
}

// BuildWhitelistTree hashes every whitelist entry and builds the tree over the
// resulting leaves in whitelist order.
func BuildWhitelistTree(entries []*types.WhitelistEntry) (*MerkleTree, error) {
	return BuildMerkleTree(HashWhitelist(entries))
}

// Root returns the merkle root.
func (mt *MerkleTree) Root() [32]byte {
	return mt.levels[len(mt.levels)-1][0]
}

// LeafCount returns the number of leaves in the tree.
func (mt *MerkleTree) LeafCount() int {
	return len(mt.levels[0])
}

// Depth returns the number of levels above the leaves.
func (mt *MerkleTree) Depth() int {
	return len(mt.levels) - 1
}

// Leaf returns the leaf digest at index.
func (mt *MerkleTree) Leaf(index int) ([32]byte, error) {
	if index < 0 || index >= mt.LeafCount() {
		return [32]byte{}, errors.Wrapf(ErrIndexOutOfRange, "leaf index %d (tree has %d leaves)", index, mt.LeafCount())
	}
	return mt.levels[0][index], nil
}

// Leaves returns a copy of the leaf level.
func (mt *MerkleTree) Leaves() [][32]byte {
	return mt.Level(0)
}

// Level returns a copy of the digests at the given level, or nil if the level
// does not exist. Level 0 holds the leaves and level Depth() holds the root.
func (mt *MerkleTree) Level(level int) [][32]byte {
	if level < 0 || level >= len(mt.levels) {
		return nil
	}
	out := make([][32]byte, len(mt.levels[level]))
	copy(out, mt.levels[level])
	return out
}

// GenerateProof creates a merkle proof for the leaf at the given index.
// The proof consists of sibling hashes along the path from leaf to root.
// Levels where the node has no sibling (it was promoted) are skipped, so
// proofs may be shorter than Depth().
func (mt *MerkleTree) GenerateProof(leafIndex int) (*MerkleProof, error) {
	if leafIndex < 0 || leafIndex >= mt.LeafCount() {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "leaf index %d (tree has %d leaves)", leafIndex, mt.LeafCount())
	}

	proof := make([][32]byte, 0, mt.Depth())
	index := leafIndex

	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		siblingIndex := index ^ 1
		if siblingIndex < len(currentLevel) {
			proof = append(proof, currentLevel[siblingIndex])
		}

		index = index / 2
	}

	return &MerkleProof{
		LeafIndex: leafIndex,
		Leaf:      mt.levels[0][leafIndex],
		Proof:     proof,
	}, nil
}

// Verify checks the proof against the given root.
func (p *MerkleProof) Verify(root [32]byte) bool {
	if p == nil {
		return false
	}
	return VerifyProof(p.Leaf, p.Proof, root)
}

// VerifyProof recomputes the root from a leaf and its proof and compares it with
// the expected root. No leaf index is needed because HashPair is order-insensitive.
func VerifyProof(leaf [32]byte, proof [][32]byte, root [32]byte) bool {
	return ComputeRoot(leaf, proof) == root
}

// ComputeRoot folds the proof over the leaf and returns the resulting root.
func ComputeRoot(leaf [32]byte, proof [][32]byte) [32]byte {
	current := leaf
	for _, sibling := range proof {
		current = HashPair(current, sibling)
	}
	return current
}

// VerifyProofBytes is VerifyProof for untyped input. It fails with
// ErrMalformedProof if the leaf, root or any proof element is not 32 bytes wide.
// A well-formed proof that does not reduce to root returns false and no error.
func VerifyProofBytes(leaf []byte, proof [][]byte, root []byte) (bool, error) {
	leafHash, err := toDigest(leaf)
	if err != nil {
		return false, errors.Wrap(err, "leaf")
	}
	rootHash, err := toDigest(root)
	if err != nil {
		return false, errors.Wrap(err, "root")
	}

	siblings := make([][32]byte, len(proof))
	for i, p := range proof {
		siblings[i], err = toDigest(p)
		if err != nil {
			return false, errors.Wrapf(err, "proof element %d", i)
		}
	}

	return VerifyProof(leafHash, siblings, rootHash), nil
}

// HashPair computes keccak256(min(a, b) || max(a, b)) for two 32-byte hashes.
// Sorting makes the result independent of left/right position, so proofs need
// no direction flags.
func HashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}

	data := make([]byte, 2*HashLength)
	copy(data[0:HashLength], a[:])
	copy(data[HashLength:], b[:])

	return [32]byte(crypto.Keccak256Hash(data))
}

func toDigest(b []byte) ([32]byte, error) {
	var d [32]byte
	if len(b) != HashLength {
		return d, errors.Wrapf(ErrMalformedProof, "expected %d bytes, got %d", HashLength, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// treeDepth returns ceil(log2(n)) for n >= 1.
func treeDepth(n int) int {
	depth := 0
	for width := 1; width < n; width <<= 1 {
		depth++
	}
	return depth
}
