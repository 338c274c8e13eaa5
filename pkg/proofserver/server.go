package proofserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/claims"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/config"
)

/*
Server exposes the active distribution over HTTP so claimants can fetch their
proof and check it before submitting a claim on-chain.

Endpoints:
  GET /root
    - Active root, version, whitelist hash and entry count
    - 503 if no version is active or the active version is missing from storage

  GET /proof?address=0x...
    - Amount and proof for the first whitelist entry with that address
    - 400 for a malformed address, 404 if the address is not in the whitelist

  POST /verify
    - Request: { address, amount, proof, root? }
    - Checks the claim against root, or the active root if root is omitted
    - 400 for a malformed address, amount, proof element or root

  GET /health
    - 200 if persistence is reachable, 503 otherwise

All endpoints share one token bucket limiter; requests over the limit get 429.
*/
type Server struct {
	verifier   *claims.Verifier
	limiter    *rate.Limiter
	logger     *zap.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a proof server backed by verifier.
func NewServer(verifier *claims.Verifier, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		verifier: verifier,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/root", s.handleGetRoot)
	mux.HandleFunc("/proof", s.handleGetProof)
	mux.HandleFunc("/verify", s.handleVerify)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.rateLimit(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start binds the listening socket and serves in the background. Bind errors,
// such as the port already being in use, are returned to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	s.logger.Sugar().Infow("Starting proof server", "addr", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Sugar().Errorw("Proof server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts the server down, waiting for in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
