package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/artifacts"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/claims"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/config"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/distribution"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/proofserver"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/whitelist"
)

const shutdownTimeout = 10 * time.Second

// runGenerate builds the distribution for cfg and writes both artifacts to cfg.OutputDir.
func runGenerate(cfg *config.GenerateConfig, l *zap.Logger) (*distribution.Distribution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	entries, err := whitelist.LoadWhitelist(cfg.WhitelistPath)
	if err != nil {
		return nil, err
	}
	if dups := whitelist.FindDuplicates(entries); len(dups) > 0 {
		l.Sugar().Warnw("Whitelist contains duplicate addresses", "count", len(dups), "first", dups[0].Hex())
	}

	version := cfg.Version
	if version == 0 {
		version = time.Now().Unix()
	}

	d, err := distribution.Build(version, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build distribution: %w", err)
	}

	proofs, err := d.ProofsArtifact()
	if err != nil {
		return nil, fmt.Errorf("failed to generate proofs: %w", err)
	}

	if err := artifacts.WriteRootArtifact(filepath.Join(cfg.OutputDir, config.DefaultRootFile), d.Root()); err != nil {
		return nil, err
	}
	if err := artifacts.WriteProofsArtifact(filepath.Join(cfg.OutputDir, config.DefaultProofsFile), proofs); err != nil {
		return nil, err
	}

	l.Sugar().Infow("Generated distribution",
		"version", d.Version(),
		"root", common.Hash(d.Root()).Hex(),
		"entries", d.EntryCount(),
		"output_dir", cfg.OutputDir,
	)
	return d, nil
}

// generateCommand handles the generate subcommand
func generateCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	d, err := runGenerate(&config.GenerateConfig{
		WhitelistPath: c.String("whitelist"),
		OutputDir:     c.String("output-dir"),
		Version:       c.Int64("version"),
	}, l)
	if err != nil {
		return err
	}

	fmt.Printf("Merkle Root: %s\n", artifacts.EncodeDigest(d.Root()))
	fmt.Printf("\nGenerated proofs for %d addresses\n", d.EntryCount())
	fmt.Printf("\nFiles generated:\n  - %s\n  - %s\n",
		filepath.Join(c.String("output-dir"), config.DefaultRootFile),
		filepath.Join(c.String("output-dir"), config.DefaultProofsFile))

	first := d.Entries()[0]
	_, proof, err := d.ProofFor(first.Address)
	if err != nil {
		return err
	}
	sample, _ := json.MarshalIndent(types.ProofsArtifact{
		first.AddressKey(): {Amount: first.AmountString(), Proof: artifacts.EncodeProof(proof.Proof)},
	}, "", "  ")
	fmt.Printf("\nSample proof:\n%s\n", sample)

	if !c.Bool("save") && !c.Bool("activate") {
		return nil
	}

	store, err := openPersistence(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := distribution.Save(store, d); err != nil {
		if errors.Is(err, persistence.ErrVersionExists) {
			return fmt.Errorf("%w; saved versions are immutable, pass a new --version", err)
		}
		return err
	}
	fmt.Printf("\n✅ Saved distribution version %d\n", d.Version())

	if c.Bool("activate") {
		if _, err := distribution.Activate(store, d.Version()); err != nil {
			return err
		}
		fmt.Printf("✅ Activated distribution version %d\n", d.Version())
	}
	return nil
}

// lookupProof finds the proofs artifact entry for addr, ignoring address case.
func lookupProof(pa types.ProofsArtifact, addr common.Address) (types.ProofEntry, bool) {
	if pe, ok := pa[addr.Hex()]; ok {
		return pe, true
	}
	for key, pe := range pa {
		if parsed, err := whitelist.ParseAddress(key); err == nil && parsed == addr {
			return pe, true
		}
	}
	return types.ProofEntry{}, false
}

// verifyCommand handles the verify subcommand
func verifyCommand(c *cli.Context) error {
	address := c.String("address")
	addr, err := whitelist.ParseAddress(address)
	if err != nil {
		return err
	}

	var root [32]byte
	if c.String("root") != "" {
		root, err = artifacts.DecodeDigest(c.String("root"))
	} else {
		root, err = artifacts.ReadRootArtifact(c.String("root-file"))
	}
	if err != nil {
		return err
	}

	amount := c.String("amount")
	proof := c.StringSlice("proof")
	if amount == "" {
		pa, err := artifacts.ReadProofsArtifact(c.String("proofs-file"))
		if err != nil {
			return err
		}
		pe, ok := lookupProof(pa, addr)
		if !ok {
			return fmt.Errorf("%w: %s", distribution.ErrAddressNotFound, addr.Hex())
		}
		amount = pe.Amount
		if len(proof) == 0 {
			proof = pe.Proof
		}
	}

	claim, err := claims.ParseClaim(address, amount, proof)
	if err != nil {
		return err
	}

	if !claim.VerifyAgainst(root) {
		fmt.Printf("❌ Claim for %s (amount %s) is NOT valid for root %s\n", addr.Hex(), amount, artifacts.EncodeDigest(root))
		return cli.Exit("", 1)
	}
	fmt.Printf("✅ Claim for %s (amount %s) is valid for root %s\n", addr.Hex(), amount, artifacts.EncodeDigest(root))
	return nil
}

// versionsCommand handles the versions subcommand
func versionsCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	store, err := openPersistence(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	versions, err := store.ListDistributions()
	if err != nil {
		return err
	}
	active, err := store.GetActiveVersion()
	if err != nil {
		return err
	}

	if len(versions) == 0 {
		fmt.Println("No distribution versions stored")
		return nil
	}
	for _, v := range versions {
		marker := " "
		if v.Version == active {
			marker = "*"
		}
		fmt.Printf("%s %d  root=%s  entries=%d  created=%s  id=%s\n",
			marker, v.Version, v.Root.Hex(), len(v.Entries),
			time.Unix(v.CreatedAt, 0).UTC().Format(time.RFC3339), v.ID)
	}
	return nil
}

// activateCommand handles the activate subcommand
func activateCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	store, err := openPersistence(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	d, err := distribution.Activate(store, c.Int64("version"))
	if err != nil {
		return err
	}
	fmt.Printf("✅ Activated distribution version %d (root %s)\n", d.Version(), artifacts.EncodeDigest(d.Root()))
	return nil
}

// rootCommand handles the root subcommand
func rootCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	store, err := openPersistence(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	d, err := distribution.LoadActive(store)
	if errors.Is(err, distribution.ErrNoActiveDistribution) {
		fmt.Println("No active distribution")
		return cli.Exit("", 1)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Active Merkle Root: %s (version %d)\n", artifacts.EncodeDigest(d.Root()), d.Version())
	return nil
}

// serveCommand handles the serve subcommand
func serveCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	serverConfig := &config.ServerConfig{
		Port:      c.Int("port"),
		RateLimit: c.Float64("rate-limit"),
		Burst:     c.Int("burst"),
	}
	if err := serverConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openPersistence(c, l)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	verifier := claims.NewVerifier(store, l)
	if _, err := verifier.ActiveDistribution(); err != nil {
		// Still serve: a version may be activated while running
		l.Sugar().Warnw("No usable active distribution at startup", "error", err)
	}

	server := proofserver.NewServer(verifier, serverConfig, l)
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start proof server: %w", err)
	}

	l.Sugar().Infow("Proof server running", "port", serverConfig.Port, "rate_limit", serverConfig.RateLimit)
	l.Sugar().Infow("Available endpoints",
		"root", "GET /root",
		"proof", "GET /proof?address=0x...",
		"verify", "POST /verify",
		"health", "GET /health")

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Info("Shutting down proof server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(shutdownCtx)
}
