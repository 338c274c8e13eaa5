package proofserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/artifacts"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/claims"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/whitelist"
)

// maxVerifyBodyBytes bounds POST /verify bodies. A proof for 2^32 leaves is 32 elements.
const maxVerifyBodyBytes = 64 << 10

// handleGetRoot handles GET /root
func (s *Server) handleGetRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	d, err := s.verifier.ActiveDistribution()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.RootResponse{
		Root:          artifacts.EncodeDigest(d.Root()),
		Version:       d.Version(),
		WhitelistHash: artifacts.EncodeDigest(d.WhitelistHash()),
		EntryCount:    d.EntryCount(),
	})
}

// handleGetProof handles GET /proof?address=0x...
func (s *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	raw := r.URL.Query().Get("address")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	addr, err := whitelist.ParseAddress(raw)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	d, err := s.verifier.ActiveDistribution()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	entry, proof, err := d.ProofFor(addr)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.ProofResponse{
		Address: entry.AddressKey(),
		Amount:  entry.AmountString(),
		Proof:   artifacts.EncodeProof(proof.Proof),
		Root:    artifacts.EncodeDigest(d.Root()),
		Version: d.Version(),
	})
}

// handleVerify handles POST /verify
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req types.VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVerifyBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	claim, err := claims.ParseClaim(req.Address, req.Amount, req.Proof)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var (
		valid bool
		root  [32]byte
	)
	if req.Root != "" {
		root, err = artifacts.DecodeDigest(req.Root)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		valid = claim.VerifyAgainst(root)
	} else {
		valid, root, err = s.verifier.Verify(claim)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, types.VerifyResponse{
		Valid: valid,
		Root:  artifacts.EncodeDigest(root),
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := s.verifier.HealthCheck(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps package sentinel errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, whitelist.ErrInvalidAddress),
		errors.Is(err, whitelist.ErrInvalidAmount),
		errors.Is(err, merkle.ErrMalformedProof),
		errors.Is(err, artifacts.ErrInvalidDigest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, distribution.ErrAddressNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, distribution.ErrNoActiveDistribution),
		errors.Is(err, distribution.ErrVersionNotFound):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Sugar().Errorw("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
