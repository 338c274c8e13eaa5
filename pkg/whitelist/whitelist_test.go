package whitelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWhitelist = `[
  {"address": "0x00000000000000000000000000000000000000A1", "amount": "100"},
  {"address": "0x00000000000000000000000000000000000000b2", "amount": "0xc8"}
]`

func TestParseWhitelist(t *testing.T) {
	entries, err := ParseWhitelist([]byte(sampleWhitelist))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, common.HexToAddress("0xA1"), entries[0].Address)
	assert.Equal(t, uint256.NewInt(100), entries[0].Amount)
	assert.Equal(t, "0x00000000000000000000000000000000000000A1", entries[0].RawAddress)
	assert.Equal(t, "100", entries[0].RawAmount)

	assert.Equal(t, common.HexToAddress("0xB2"), entries[1].Address)
	assert.Equal(t, uint256.NewInt(200), entries[1].Amount)
	assert.Equal(t, "0xc8", entries[1].RawAmount, "raw amount is kept as given")
}

func TestParseWhitelist_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Empty array", `[]`, ErrEmptyWhitelist},
		{"Bad address", `[{"address": "0x1234", "amount": "1"}]`, ErrInvalidAddress},
		{"Missing 0x prefix", `[{"address": "00000000000000000000000000000000000000A1", "amount": "1"}]`, ErrInvalidAddress},
		{"Negative amount", `[{"address": "0x00000000000000000000000000000000000000A1", "amount": "-1"}]`, ErrInvalidAmount},
		{"Float amount", `[{"address": "0x00000000000000000000000000000000000000A1", "amount": "1.5"}]`, ErrInvalidAmount},
		{"Empty amount", `[{"address": "0x00000000000000000000000000000000000000A1", "amount": ""}]`, ErrInvalidAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := ParseWhitelist([]byte(tc.input))
			require.ErrorIs(t, err, tc.wantErr)
			require.Nil(t, entries)
		})
	}

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := ParseWhitelist([]byte("not json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode whitelist")
	})

	t.Run("Error names the entry", func(t *testing.T) {
		_, err := ParseWhitelist([]byte(`[
			{"address": "0x00000000000000000000000000000000000000A1", "amount": "1"},
			{"address": "nope", "amount": "1"}
		]`))
		require.ErrorIs(t, err, ErrInvalidAddress)
		assert.Contains(t, err.Error(), "entry 1")
	})
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		input    string
		expected *uint256.Int
		wantErr  bool
	}{
		{"0", uint256.NewInt(0), false},
		{"1000000000000000000", uint256.NewInt(1000000000000000000), false},
		{"0x0", uint256.NewInt(0), false},
		{"0xFF", uint256.NewInt(255), false},
		{"0X10", uint256.NewInt(16), false},
		{"0x" + "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", new(uint256.Int).SetAllOne(), false},
		{"0x1" + "0000000000000000000000000000000000000000000000000000000000000000", nil, true},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639936", nil, true},
		{"0x", nil, true},
		{"0x+5", nil, true},
		{"0xzz", nil, true},
		{"+5", nil, true},
		{"1e18", nil, true},
		{" 5", nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			amount, err := ParseAmount(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, amount)
		})
	}
}

func TestLoadWhitelist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleWhitelist), 0o600))

	entries, err := LoadWhitelist(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = LoadWhitelist(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read whitelist file")
}

func TestFindDuplicates(t *testing.T) {
	entries, err := ParseWhitelist([]byte(`[
		{"address": "0x00000000000000000000000000000000000000A1", "amount": "1"},
		{"address": "0x00000000000000000000000000000000000000B2", "amount": "2"},
		{"address": "0x00000000000000000000000000000000000000a1", "amount": "3"},
		{"address": "0x00000000000000000000000000000000000000A1", "amount": "4"}
	]`))
	require.NoError(t, err)

	dups := FindDuplicates(entries)
	require.Equal(t, []common.Address{common.HexToAddress("0xA1")}, dups)

	require.Empty(t, FindDuplicates(entries[:2]))
}

func TestMarshalRoundTrip(t *testing.T) {
	entries, err := ParseWhitelist([]byte(`[
		{"address": "0x00000000000000000000000000000000000000A1", "amount": "100"}
	]`))
	require.NoError(t, err)

	data, err := Marshal(entries)
	require.NoError(t, err)

	reparsed, err := ParseWhitelist(data)
	require.NoError(t, err)
	require.Equal(t, entries, reparsed)
}
