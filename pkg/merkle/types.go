package merkle

// MerkleTree represents a binary merkle tree built from ordered leaf digests.
// The tree uses keccak256 hashing with sorted pairs for Solidity compatibility
// (OpenZeppelin MerkleProof style). Once built it is never mutated.
type MerkleTree struct {
	// levels stores all tree levels for proof generation
	// levels[0] = leaves, levels[len-1] = [root]
	levels [][][32]byte
}

// MerkleProof represents a proof that a leaf is included in the tree.
// The proof consists of sibling hashes along the path from leaf to root.
// Levels where the node was promoted without a sibling contribute nothing.
type MerkleProof struct {
	// LeafIndex is the position of the leaf in the whitelist
	LeafIndex int

	// Leaf is the hash of the leaf being proven
	Leaf [32]byte

	// Proof contains the sibling hashes from leaf to root
	// proof[0] is the sibling of the leaf, proof[len-1] is near the root
	Proof [][32]byte
}
