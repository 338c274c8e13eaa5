package claims

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/artifacts"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/whitelist"
)

// Claim is a claimant's assertion that (Address, Amount) is in the committed whitelist.
type Claim struct {
	Address common.Address
	Amount  *uint256.Int
	Proof   [][32]byte
}

// ParseClaim validates the textual form of a claim. Address and amount errors wrap
// whitelist.ErrInvalidAddress and whitelist.ErrInvalidAmount; a bad proof element
// wraps merkle.ErrMalformedProof.
func ParseClaim(address, amount string, proof []string) (*Claim, error) {
	addr, err := whitelist.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	amt, err := whitelist.ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	p, err := artifacts.DecodeProof(proof)
	if err != nil {
		return nil, err
	}
	return &Claim{Address: addr, Amount: amt, Proof: p}, nil
}

// Leaf returns the leaf hash the claim asserts.
func (c *Claim) Leaf() [32]byte {
	return merkle.HashLeaf(c.Address, c.Amount)
}

// VerifyAgainst checks the claim against a published root. This mirrors the
// on-chain check: no leaf index is needed.
func (c *Claim) VerifyAgainst(root [32]byte) bool {
	return merkle.VerifyProof(c.Leaf(), c.Proof, root)
}

// Verifier checks claims against the active distribution in persistence.
// The active distribution's tree is cached per (version, root).
type Verifier struct {
	store  persistence.IDistributionPersistence
	logger *zap.Logger

	mu     sync.Mutex
	cached *distribution.Distribution
}

func NewVerifier(store persistence.IDistributionPersistence, logger *zap.Logger) *Verifier {
	return &Verifier{
		store:  store,
		logger: logger,
	}
}

// ActiveDistribution returns the active distribution, rebuilding it if the active
// version or its stored root changed since the last call.
func (v *Verifier) ActiveDistribution() (*distribution.Distribution, error) {
	active, err := v.store.GetActiveVersion()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read active version")
	}
	if active == 0 {
		return nil, distribution.ErrNoActiveDistribution
	}

	stored, err := v.store.LoadDistribution(active)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load distribution version %d", active)
	}
	if stored == nil {
		return nil, errors.Wrapf(distribution.ErrVersionNotFound, "active version %d", active)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// Reuse the tree only while the stored record still commits to the cached root
	if v.cached != nil && v.cached.Version() == active &&
		common.Hash(v.cached.Root()) == stored.Root && common.Hash(v.cached.WhitelistHash()) == stored.WhitelistHash {
		return v.cached, nil
	}

	d, err := distribution.FromVersion(stored)
	if err != nil {
		return nil, err
	}

	v.logger.Sugar().Infow("Loaded active distribution",
		"version", d.Version(),
		"root", common.Hash(d.Root()).Hex(),
		"entries", d.EntryCount(),
	)
	v.cached = d
	return d, nil
}

// Verify checks claim against the active root and returns the root it was checked against.
func (v *Verifier) Verify(claim *Claim) (bool, [32]byte, error) {
	d, err := v.ActiveDistribution()
	if err != nil {
		return false, [32]byte{}, err
	}
	root := d.Root()
	return claim.VerifyAgainst(root), root, nil
}

// VerifyClaim parses and verifies a claim given in text form.
func (v *Verifier) VerifyClaim(address, amount string, proof []string) (bool, error) {
	claim, err := ParseClaim(address, amount, proof)
	if err != nil {
		return false, err
	}
	valid, _, err := v.Verify(claim)
	if err != nil {
		return false, err
	}
	if !valid {
		v.logger.Sugar().Debugw("Claim rejected", "address", claim.Address.Hex(), "amount", claim.Amount.Dec())
	}
	return valid, nil
}

// HealthCheck reports whether the underlying persistence is reachable.
func (v *Verifier) HealthCheck() error {
	return v.store.HealthCheck()
}
