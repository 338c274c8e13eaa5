package merkle

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

// LeafPreimageLength is the size of the packed (address, uint256) encoding.
const LeafPreimageLength = common.AddressLength + 32

// EncodeLeaf returns the leaf pre-image, matching Solidity's
// abi.encodePacked(address, uint256): address (20 bytes) || amount (32 bytes, big-endian).
// Both fields are fixed width so distinct pairs never share a pre-image.
func EncodeLeaf(address common.Address, amount *uint256.Int) []byte {
	var amountBytes [32]byte
	if amount != nil {
		amountBytes = amount.Bytes32()
	}

	data := make([]byte, 0, LeafPreimageLength)
	data = append(data, address.Bytes()...)
	data = append(data, amountBytes[:]...)
	return data
}

// HashLeaf computes keccak256(abi.encodePacked(address, amount)).
// A nil amount is treated as zero.
func HashLeaf(address common.Address, amount *uint256.Int) [32]byte {
	return [32]byte(crypto.Keccak256Hash(EncodeLeaf(address, amount)))
}

// HashWhitelistEntry computes the leaf digest for a whitelist entry.
func HashWhitelistEntry(entry *types.WhitelistEntry) [32]byte {
	return HashLeaf(entry.Address, entry.Amount)
}

// HashWhitelist computes the leaf digests for a whitelist, preserving order.
func HashWhitelist(entries []*types.WhitelistEntry) [][32]byte {
	leaves := make([][32]byte, len(entries))
	for i, entry := range entries {
		leaves[i] = HashWhitelistEntry(entry)
	}
	return leaves
}
