package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/config"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/logger"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence/factory"
)

func main() {
	app := &cli.App{
		Name:  "airdrop",
		Usage: "Merkle airdrop commitment tooling",
		Description: `Builds and serves the merkle commitment for a token airdrop whitelist.

A whitelist is a JSON array of {address, amount} objects. Each entry becomes the leaf
keccak256(address || uint256(amount)), pairs are hashed in sorted order and an odd node
is promoted unhashed, so proofs verify against the on-chain contract without a leaf index.

Distribution versions are immutable. A changed whitelist is saved as a new version and
made trusted with "activate".`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvAirdropVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Build the merkle tree for a whitelist and write root and proof artifacts",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "whitelist",
						Aliases: []string{"w"},
						Usage:   "Path to the whitelist JSON file",
						Value:   config.DefaultWhitelistFile,
						EnvVars: []string{config.EnvAirdropWhitelistPath},
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Directory for merkle-root.json and merkle-proofs.json",
						Value:   ".",
						EnvVars: []string{config.EnvAirdropOutputDir},
					},
					&cli.Int64Flag{
						Name:  "version",
						Usage: "Distribution version number (defaults to the current unix time)",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Persist the distribution as a new version",
					},
					&cli.BoolFlag{
						Name:  "activate",
						Usage: "Persist the distribution and make it the active version",
					},
				}, persistenceFlags()...),
				Action: generateCommand,
			},
			{
				Name:  "verify",
				Usage: "Verify a claim against a merkle root",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "address",
						Usage:    "Claimant address",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "amount",
						Usage: "Claimed amount (read from the proofs file if omitted)",
					},
					&cli.StringSliceFlag{
						Name:  "proof",
						Usage: "Proof element, repeatable (read from the proofs file if omitted)",
					},
					&cli.StringFlag{
						Name:  "root",
						Usage: "Merkle root (read from the root file if omitted)",
					},
					&cli.StringFlag{
						Name:  "root-file",
						Usage: "Root artifact to read the root from",
						Value: config.DefaultRootFile,
					},
					&cli.StringFlag{
						Name:  "proofs-file",
						Usage: "Proofs artifact to read amount and proof from",
						Value: config.DefaultProofsFile,
					},
				},
				Action: verifyCommand,
			},
			{
				Name:   "versions",
				Usage:  "List stored distribution versions",
				Flags:  persistenceFlags(),
				Action: versionsCommand,
			},
			{
				Name:  "activate",
				Usage: "Make a stored distribution version the active one",
				Flags: append([]cli.Flag{
					&cli.Int64Flag{
						Name:     "version",
						Usage:    "Distribution version to activate",
						Required: true,
					},
				}, persistenceFlags()...),
				Action: activateCommand,
			},
			{
				Name:   "root",
				Usage:  "Print the active merkle root",
				Flags:  persistenceFlags(),
				Action: rootCommand,
			},
			{
				Name:  "serve",
				Usage: "Serve roots and proofs for the active distribution over HTTP",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP server port",
						Value:   config.DefaultPort,
						EnvVars: []string{config.EnvAirdropPort},
					},
					&cli.Float64Flag{
						Name:    "rate-limit",
						Usage:   "Sustained requests per second across all clients",
						Value:   config.DefaultRateLimit,
						EnvVars: []string{config.EnvAirdropRateLimit},
					},
					&cli.IntFlag{
						Name:  "burst",
						Usage: "Maximum burst of requests above the rate limit",
						Value: int(config.DefaultRateLimit),
					},
				}, persistenceFlags()...),
				Action: serveCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func persistenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "persistence",
			Usage:   fmt.Sprintf("Persistence backend: %s", config.GetSupportedPersistenceTypesString()),
			Value:   config.PersistenceTypeBadger.String(),
			EnvVars: []string{config.EnvAirdropPersistenceType},
		},
		&cli.StringFlag{
			Name:    "data-path",
			Usage:   "Badger data directory",
			Value:   config.DefaultDataPath,
			EnvVars: []string{config.EnvAirdropDataPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Redis server address (host:port)",
			Value:   config.DefaultRedisAddress,
			EnvVars: []string{config.EnvAirdropRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{config.EnvAirdropRedisPassword},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			EnvVars: []string{config.EnvAirdropRedisDB},
		},
		&cli.StringFlag{
			Name:    "redis-key-prefix",
			Usage:   "Prefix for all Redis keys",
			EnvVars: []string{config.EnvAirdropRedisKeyPrefix},
		},
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func parsePersistenceConfig(c *cli.Context) (*config.PersistenceConfig, error) {
	pt, err := config.ParsePersistenceType(c.String("persistence"))
	if err != nil {
		return nil, err
	}
	return &config.PersistenceConfig{
		Type:           pt,
		DataPath:       c.String("data-path"),
		RedisAddress:   c.String("redis-address"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		RedisKeyPrefix: c.String("redis-key-prefix"),
	}, nil
}

func openPersistence(c *cli.Context, l *zap.Logger) (persistence.IDistributionPersistence, error) {
	cfg, err := parsePersistenceConfig(c)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return factory.NewPersistence(cfg, l)
}
