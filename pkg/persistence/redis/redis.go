package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

// Key layout in Redis
const (
	keyPrefixDistribution = "airdrop:distribution:"
	keyActiveVersion      = "airdrop:active:version"
	keySchemaVersion      = "airdrop:metadata:schema_version"
	currentSchemaVersion  = "v1"

	// Redis has no prefix iteration, so version numbers are tracked in a set
	keySetDistributions = "airdrop:distributions:index"

	connectTimeout = 5 * time.Second
	maxTxRetries   = 3
)

var errClosed = errors.New("persistence layer is closed")

// RedisPersistence stores distribution versions in Redis, so several proof servers
// can share one set of versions and one active pointer.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IDistributionPersistence = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "mainnet:" gives keys like
	// "mainnet:airdrop:distribution:42".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized",
		"address", cfg.Address,
		"db", cfg.DB,
		"key_prefix", cfg.KeyPrefix,
	)

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisPersistence) distributionKey(version string) string {
	return r.prefixKey(keyPrefixDistribution + version)
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	// SETNX so concurrent first starts agree on one value
	if _, err := r.client.SetNX(ctx, schemaKey, currentSchemaVersion, 0).Result(); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	existing, err := r.client.Get(ctx, schemaKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existing != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
	}
	return nil
}

// SaveDistribution persists a distribution version
func (r *RedisPersistence) SaveDistribution(version *types.DistributionVersion) error {
	if version == nil {
		return fmt.Errorf("cannot save nil DistributionVersion")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errClosed
	}

	data, err := persistence.MarshalDistributionVersion(version)
	if err != nil {
		return fmt.Errorf("failed to marshal DistributionVersion: %w", err)
	}

	ctx := context.Background()
	id := strconv.FormatInt(version.Version, 10)
	key := r.distributionKey(id)

	// WATCH the key so a concurrent save of the same number aborts the EXEC
	save := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Bytes()
		if err == nil {
			existing, err := persistence.UnmarshalDistributionVersion(stored)
			if err != nil {
				return fmt.Errorf("failed to unmarshal existing DistributionVersion: %w", err)
			}
			if !persistence.SameCommitment(existing, version) {
				return fmt.Errorf("%w: version %d", persistence.ErrVersionExists, version.Version)
			}
			return nil
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, r.prefixKey(keySetDistributions), id)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = r.client.Watch(ctx, save, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to save DistributionVersion: %w", err)
	}
	return nil
}

// LoadDistribution retrieves a distribution version
func (r *RedisPersistence) LoadDistribution(version int64) (*types.DistributionVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}

	ctx := context.Background()
	data, err := r.client.Get(ctx, r.distributionKey(strconv.FormatInt(version, 10))).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load DistributionVersion: %w", err)
	}

	dv, err := persistence.UnmarshalDistributionVersion(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal DistributionVersion: %w", err)
	}
	return dv, nil
}

// ListDistributions returns all distribution versions sorted by version number
func (r *RedisPersistence) ListDistributions() ([]*types.DistributionVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errClosed
	}

	ctx := context.Background()
	indexKey := r.prefixKey(keySetDistributions)

	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list distribution versions: %w", err)
	}

	versions := make([]*types.DistributionVersion, 0, len(ids))
	if len(ids) == 0 {
		return versions, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.distributionKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DistributionVersions: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// Indexed but missing, drop the stale index entry
			r.client.SRem(ctx, indexKey, ids[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for DistributionVersion", "key", keys[i])
			continue
		}

		dv, err := persistence.UnmarshalDistributionVersion([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal DistributionVersion, skipping",
				"key", keys[i], "error", err)
			continue
		}
		versions = append(versions, dv)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})

	return versions, nil
}

// DeleteDistribution removes a distribution version
func (r *RedisPersistence) DeleteDistribution(version int64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errClosed
	}

	ctx := context.Background()
	id := strconv.FormatInt(version, 10)
	activeKey := r.prefixKey(keyActiveVersion)

	del := func(tx *redis.Tx) error {
		active, err := tx.Get(ctx, activeKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read active version: %w", err)
		}
		if err == nil && version != 0 && active == version {
			return fmt.Errorf("%w: version %d", persistence.ErrVersionActive, version)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.distributionKey(id))
			pipe.SRem(ctx, r.prefixKey(keySetDistributions), id)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = r.client.Watch(ctx, del, activeKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	return err
}

// SetActiveVersion stores the active distribution version
func (r *RedisPersistence) SetActiveVersion(version int64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errClosed
	}

	return r.client.Set(context.Background(), r.prefixKey(keyActiveVersion), version, 0).Err()
}

// GetActiveVersion retrieves the active distribution version
func (r *RedisPersistence) GetActiveVersion() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, errClosed
	}

	version, err := r.client.Get(context.Background(), r.prefixKey(keyActiveVersion)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get active version: %w", err)
	}
	return version, nil
}

// Close shuts down the Redis client
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis and checks the schema version key
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
