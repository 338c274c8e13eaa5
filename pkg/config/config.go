package config

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for airdrop tooling configuration
const (
	EnvAirdropWhitelistPath   = "AIRDROP_WHITELIST_PATH"
	EnvAirdropOutputDir       = "AIRDROP_OUTPUT_DIR"
	EnvAirdropPersistenceType = "AIRDROP_PERSISTENCE_TYPE"
	EnvAirdropDataPath        = "AIRDROP_DATA_PATH"
	EnvAirdropRedisAddress    = "AIRDROP_REDIS_ADDRESS"
	EnvAirdropRedisPassword   = "AIRDROP_REDIS_PASSWORD"
	EnvAirdropRedisDB         = "AIRDROP_REDIS_DB"
	EnvAirdropRedisKeyPrefix  = "AIRDROP_REDIS_KEY_PREFIX"
	EnvAirdropPort            = "AIRDROP_PORT"
	EnvAirdropRateLimit       = "AIRDROP_RATE_LIMIT"
	EnvAirdropVerbose         = "AIRDROP_VERBOSE"
)

// Default file names, matching the artifacts consumed by deployment scripts
const (
	DefaultWhitelistFile = "whitelist.json"
	DefaultRootFile      = "merkle-root.json"
	DefaultProofsFile    = "merkle-proofs.json"
	DefaultDataPath      = "./airdrop-data"
	DefaultRedisAddress  = "localhost:6379"
	DefaultPort          = 8080
	DefaultRateLimit     = 50.0
)

type PersistenceType string

func (p PersistenceType) String() string {
	return string(p)
}

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// ParsePersistenceType converts a user supplied string to a PersistenceType.
func ParsePersistenceType(s string) (PersistenceType, error) {
	switch PersistenceType(strings.ToLower(strings.TrimSpace(s))) {
	case PersistenceTypeMemory:
		return PersistenceTypeMemory, nil
	case PersistenceTypeBadger:
		return PersistenceTypeBadger, nil
	case PersistenceTypeRedis:
		return PersistenceTypeRedis, nil
	default:
		return "", fmt.Errorf("unsupported persistence type: %q", s)
	}
}

// GetSupportedPersistenceTypesString returns supported persistence types for CLI help
func GetSupportedPersistenceTypesString() string {
	return fmt.Sprintf("%s, %s, %s", PersistenceTypeMemory, PersistenceTypeBadger, PersistenceTypeRedis)
}

// PersistenceConfig selects and configures the distribution version store
type PersistenceConfig struct {
	Type PersistenceType `json:"type" yaml:"type"`

	// Badger
	DataPath string `json:"dataPath" yaml:"dataPath"`

	// Redis
	RedisAddress   string `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword  string `json:"redisPassword" yaml:"redisPassword"`
	RedisDB        int    `json:"redisDb" yaml:"redisDb"`
	RedisKeyPrefix string `json:"redisKeyPrefix" yaml:"redisKeyPrefix"`
}

func (pc *PersistenceConfig) Validate() error {
	var allErrors field.ErrorList
	path := field.NewPath("persistence")

	switch pc.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if pc.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if pc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for redis persistence"))
		}
		if pc.RedisDB < 0 || pc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDb"), pc.RedisDB, "must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), pc.Type,
			[]string{PersistenceTypeMemory.String(), PersistenceTypeBadger.String(), PersistenceTypeRedis.String()}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// GenerateConfig configures building a distribution from a whitelist file
type GenerateConfig struct {
	WhitelistPath string `json:"whitelistPath" yaml:"whitelistPath"`
	OutputDir     string `json:"outputDir" yaml:"outputDir"`
	Version       int64  `json:"version" yaml:"version"`
}

func (gc *GenerateConfig) Validate() error {
	var allErrors field.ErrorList
	if gc.WhitelistPath == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("whitelistPath"), "whitelistPath is required"))
	}
	if gc.OutputDir == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("outputDir"), "outputDir is required"))
	}
	if gc.Version < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("version"), gc.Version, "version must not be negative"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ServerConfig configures the proof server
type ServerConfig struct {
	Port int `json:"port" yaml:"port"`

	// RateLimit is the sustained number of requests per second, Burst the bucket size
	RateLimit float64 `json:"rateLimit" yaml:"rateLimit"`
	Burst     int     `json:"burst" yaml:"burst"`
}

func (sc *ServerConfig) Validate() error {
	var allErrors field.ErrorList
	if sc.Port < 1 || sc.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), sc.Port, "port must be between 1-65535"))
	}
	if sc.RateLimit <= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), sc.RateLimit, "rateLimit must be positive"))
	}
	if sc.Burst < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("burst"), sc.Burst, "burst must be at least 1"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
