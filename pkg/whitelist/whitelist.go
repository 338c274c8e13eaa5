package whitelist

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

var (
	ErrEmptyWhitelist = errors.New("whitelist is empty")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// rawEntry is the on-disk shape of a whitelist entry.
type rawEntry struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// ParseWhitelist decodes a JSON array of {address, amount} objects.
// Entry order is preserved since it determines leaf order.
func ParseWhitelist(data []byte) ([]*types.WhitelistEntry, error) {
	var raw []rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode whitelist JSON")
	}
	if len(raw) == 0 {
		return nil, ErrEmptyWhitelist
	}

	entries := make([]*types.WhitelistEntry, len(raw))
	for i, r := range raw {
		entry, err := ParseEntry(r.Address, r.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "whitelist entry %d", i)
		}
		entries[i] = entry
	}
	return entries, nil
}

// LoadWhitelist reads and parses a whitelist file.
func LoadWhitelist(path string) ([]*types.WhitelistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read whitelist file %s", path)
	}
	return ParseWhitelist(data)
}

// ParseEntry validates one (address, amount) pair, keeping the raw text.
func ParseEntry(address, amount string) (*types.WhitelistEntry, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	amt, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	return &types.WhitelistEntry{
		Address:    addr,
		Amount:     amt,
		RawAddress: address,
		RawAmount:  amount,
	}, nil
}

// ParseAddress requires a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (common.Address, error) {
	if !has0xPrefix(s) || !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	return common.HexToAddress(s), nil
}

// ParseAmount accepts a decimal string or a 0x-prefixed hex string of an
// unsigned integer that fits in 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	amount, err := types.ParseAmount(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidAmount, err.Error())
	}
	return amount, nil
}

// FindDuplicates returns addresses that occur more than once, in order of
// first repetition. The tree accepts duplicates; callers decide what to do.
func FindDuplicates(entries []*types.WhitelistEntry) []common.Address {
	seen := make(map[common.Address]int, len(entries))
	var dups []common.Address
	for _, e := range entries {
		seen[e.Address]++
		if seen[e.Address] == 2 {
			dups = append(dups, e.Address)
		}
	}
	return dups
}

// Marshal renders entries in whitelist file form.
func Marshal(entries []*types.WhitelistEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

func has0xPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}
