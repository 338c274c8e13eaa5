package types

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WhitelistEntry is a single (address, amount) allocation in an airdrop whitelist.
// Position in the whitelist determines the leaf index in the merkle tree.
type WhitelistEntry struct {
	Address common.Address
	Amount  *uint256.Int

	// RawAddress and RawAmount keep the text exactly as it appeared in the input,
	// since the proofs artifact is keyed by the address as given.
	RawAddress string
	RawAmount  string
}

// NewWhitelistEntry creates an entry whose raw fields are the canonical renderings
// of address and amount.
func NewWhitelistEntry(address common.Address, amount *uint256.Int) *WhitelistEntry {
	if amount == nil {
		amount = new(uint256.Int)
	}
	return &WhitelistEntry{
		Address:    address,
		Amount:     new(uint256.Int).Set(amount),
		RawAddress: address.Hex(),
		RawAmount:  amount.ToBig().String(),
	}
}

// AddressKey returns the key used for this entry in the proofs artifact.
func (e *WhitelistEntry) AddressKey() string {
	if e.RawAddress != "" {
		return e.RawAddress
	}
	return e.Address.Hex()
}

// AmountString returns the amount as given, falling back to its decimal form.
func (e *WhitelistEntry) AmountString() string {
	if e.RawAmount != "" {
		return e.RawAmount
	}
	if e.Amount == nil {
		return "0"
	}
	return e.Amount.ToBig().String()
}

// Copy returns a deep copy of the entry.
func (e *WhitelistEntry) Copy() *WhitelistEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Amount != nil {
		c.Amount = new(uint256.Int).Set(e.Amount)
	}
	return &c
}

type whitelistEntryJSON struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// MarshalJSON renders the entry in whitelist file form.
func (e *WhitelistEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(whitelistEntryJSON{
		Address: e.AddressKey(),
		Amount:  e.AmountString(),
	})
}

// UnmarshalJSON accepts the stored form written by MarshalJSON.
func (e *WhitelistEntry) UnmarshalJSON(data []byte) error {
	var raw whitelistEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !common.IsHexAddress(raw.Address) {
		return fmt.Errorf("invalid address: %q", raw.Address)
	}
	amount, err := ParseAmount(raw.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	e.Address = common.HexToAddress(raw.Address)
	e.Amount = amount
	e.RawAddress = raw.Address
	e.RawAmount = raw.Amount
	return nil
}

// DistributionVersion is an immutable snapshot of one whitelist revision and the
// merkle commitment derived from it.
type DistributionVersion struct {
	Version       int64             `json:"version"`       // Unix timestamp (or operator chosen number) identifying the revision
	ID            string            `json:"id"`            // Random identifier, unique per build
	WhitelistHash common.Hash       `json:"whitelistHash"` // keccak256 over the ordered leaves
	Root          common.Hash       `json:"root"`          // Merkle root published for claims
	Entries       []*WhitelistEntry `json:"entries"`       // Whitelist in leaf order
	CreatedAt     int64             `json:"createdAt"`     // Unix timestamp of the build
}

// Copy returns a deep copy of the version.
func (v *DistributionVersion) Copy() *DistributionVersion {
	if v == nil {
		return nil
	}
	entries := make([]*WhitelistEntry, len(v.Entries))
	for i, e := range v.Entries {
		entries[i] = e.Copy()
	}
	return &DistributionVersion{
		Version:       v.Version,
		ID:            v.ID,
		WhitelistHash: v.WhitelistHash,
		Root:          v.Root,
		Entries:       entries,
		CreatedAt:     v.CreatedAt,
	}
}
