package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-airdrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-airdrop-go/pkg/types"
)

// Key prefixes for namespacing
const (
	keyPrefixDistribution = "distribution:"
	keyActiveVersion      = "active:version"
	keySchemaVersion      = "metadata:schema_version"
	currentSchemaVersion  = "v1"

	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

var errClosed = errors.New("persistence layer is closed")

// BadgerPersistence stores distribution versions on disk using Badger.
// Every write is fsynced, so a version reported as saved survives a crash.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IDistributionPersistence = (*BadgerPersistence)(nil)

// NewBadgerPersistence opens (or creates) a Badger database at dataPath and starts
// background value log garbage collection.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newBadgerLoggerAdapter(logger)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)

	return bp, nil
}

// initSchema writes the schema version on first open and rejects databases
// written by an incompatible layout.
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		existing, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}
		if string(existing) != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// distributionKey encodes the version big-endian so iteration order follows
// version order for non-negative versions.
func distributionKey(version int64) []byte {
	key := make([]byte, len(keyPrefixDistribution)+8)
	copy(key, keyPrefixDistribution)
	binary.BigEndian.PutUint64(key[len(keyPrefixDistribution):], uint64(version))
	return key
}

// get returns a copy of the value at key, or nil if the key is absent.
func (b *BadgerPersistence) get(key []byte) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

// SaveDistribution persists a distribution version
func (b *BadgerPersistence) SaveDistribution(version *types.DistributionVersion) error {
	if version == nil {
		return fmt.Errorf("cannot save nil DistributionVersion")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errClosed
	}

	data, err := persistence.MarshalDistributionVersion(version)
	if err != nil {
		return fmt.Errorf("failed to marshal DistributionVersion: %w", err)
	}

	key := distributionKey(version.Version)
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set(key, data)
		}
		if err != nil {
			return fmt.Errorf("failed to check existing DistributionVersion: %w", err)
		}

		stored, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read existing DistributionVersion: %w", err)
		}
		existing, err := persistence.UnmarshalDistributionVersion(stored)
		if err != nil {
			return fmt.Errorf("failed to unmarshal existing DistributionVersion: %w", err)
		}
		if !persistence.SameCommitment(existing, version) {
			return fmt.Errorf("%w: version %d", persistence.ErrVersionExists, version.Version)
		}
		return nil
	})
}

// LoadDistribution retrieves a distribution version
func (b *BadgerPersistence) LoadDistribution(version int64) (*types.DistributionVersion, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errClosed
	}

	data, err := b.get(distributionKey(version))
	if err != nil {
		return nil, fmt.Errorf("failed to load DistributionVersion: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	dv, err := persistence.UnmarshalDistributionVersion(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal DistributionVersion: %w", err)
	}
	return dv, nil
}

// ListDistributions returns all distribution versions sorted by version number
func (b *BadgerPersistence) ListDistributions() ([]*types.DistributionVersion, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errClosed
	}

	versions := make([]*types.DistributionVersion, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixDistribution)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			dv, err := persistence.UnmarshalDistributionVersion(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal DistributionVersion, skipping",
					"key", fmt.Sprintf("%x", item.Key()), "error", err)
				continue
			}

			versions = append(versions, dv)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list DistributionVersions: %w", err)
	}

	// Negative versions sort after positive ones in key order
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})

	return versions, nil
}

// DeleteDistribution removes a distribution version
func (b *BadgerPersistence) DeleteDistribution(version int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyActiveVersion))
		if err != nil && !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("failed to read active version: %w", err)
		}
		if err == nil {
			active, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read active version: %w", err)
			}
			if len(active) == 8 && version != 0 && int64(binary.BigEndian.Uint64(active)) == version {
				return fmt.Errorf("%w: version %d", persistence.ErrVersionActive, version)
			}
		}
		return txn.Delete(distributionKey(version))
	})
}

// SetActiveVersion stores the active distribution version
func (b *BadgerPersistence) SetActiveVersion(version int64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errClosed
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(version))

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyActiveVersion), buf)
	})
}

// GetActiveVersion retrieves the active distribution version
func (b *BadgerPersistence) GetActiveVersion() (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, errClosed
	}

	data, err := b.get([]byte(keyActiveVersion))
	if err != nil {
		return 0, fmt.Errorf("failed to get active version: %w", err)
	}
	if data == nil {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid active version data length: %d", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// Close stops garbage collection and closes the database
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

// HealthCheck verifies the database is readable and carries a schema version
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return errClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
