package merkle

import "github.com/pkg/errors"

var (
	// ErrEmptyInput is returned when building a tree with no leaves.
	ErrEmptyInput = errors.New("cannot build merkle tree from empty leaf list")

	// ErrIndexOutOfRange is returned when a proof is requested for a leaf that does not exist.
	ErrIndexOutOfRange = errors.New("leaf index out of range")

	// ErrMalformedProof is returned when a proof element is not a 32-byte digest.
	ErrMalformedProof = errors.New("malformed merkle proof")
)
