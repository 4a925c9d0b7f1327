// Package store persists chain snapshots so local edits can be undone from a
// later invocation.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

var (
	bucketChains = []byte("chains")
	bucketMeta   = []byte("meta")
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is a chain as it was read from one service.
type Snapshot struct {
	Source  string
	SavedAt time.Time
	Blocks  []models.Block
}

// SnapshotStore keeps one snapshot per service URL in a bbolt database.
type SnapshotStore struct {
	db *bbolt.DB
}

// OpenSnapshotStore opens or creates the database at path.
// The parent directory is created if it does not exist.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChains, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error { return s.db.Close() }

// indexKey encodes a block index as a 4-byte big-endian key so blocks iterate in chain order.
func indexKey(index int) ([]byte, error) {
	if index < 0 || int64(index) > int64(^uint32(0)) {
		return nil, fmt.Errorf("block index %d out of range", index)
	}
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, uint32(index))
	return k, nil
}

// SaveChain replaces the snapshot stored for source.
func (s *SnapshotStore) SaveChain(source string, blocks []models.Block) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		chains := tx.Bucket(bucketChains)
		if chains.Bucket([]byte(source)) != nil {
			if err := chains.DeleteBucket([]byte(source)); err != nil {
				return fmt.Errorf("store: drop snapshot of %s: %w", source, err)
			}
		}
		bucket, err := chains.CreateBucket([]byte(source))
		if err != nil {
			return fmt.Errorf("store: create snapshot of %s: %w", source, err)
		}

		for _, block := range blocks {
			key, err := indexKey(block.Index)
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			data, err := json.Marshal(block)
			if err != nil {
				return fmt.Errorf("store: encode block %d: %w", block.Index, err)
			}
			if err := bucket.Put(key, data); err != nil {
				return fmt.Errorf("store: put block %d: %w", block.Index, err)
			}
		}

		savedAt, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put([]byte(source), savedAt)
	})
}

// LoadChain returns the snapshot stored for source, or ErrNoSnapshot.
func (s *SnapshotStore) LoadChain(source string) (Snapshot, error) {
	snapshot := Snapshot{Source: source}
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketChains).Bucket([]byte(source))
		if bucket == nil {
			return ErrNoSnapshot
		}

		if raw := tx.Bucket(bucketMeta).Get([]byte(source)); raw != nil {
			if err := snapshot.SavedAt.UnmarshalText(raw); err != nil {
				return fmt.Errorf("store: decode snapshot time: %w", err)
			}
		}

		return bucket.ForEach(func(k, v []byte) error {
			var block models.Block
			if err := json.Unmarshal(v, &block); err != nil {
				return fmt.Errorf("store: decode block %d: %w", binary.BigEndian.Uint32(k), err)
			}
			snapshot.Blocks = append(snapshot.Blocks, block)
			return nil
		})
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// DeleteChain removes the snapshot stored for source. Deleting a missing
// snapshot is not an error.
func (s *SnapshotStore) DeleteChain(source string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		chains := tx.Bucket(bucketChains)
		if chains.Bucket([]byte(source)) != nil {
			if err := chains.DeleteBucket([]byte(source)); err != nil {
				return fmt.Errorf("store: drop snapshot of %s: %w", source, err)
			}
		}
		return tx.Bucket(bucketMeta).Delete([]byte(source))
	})
}

// Sources lists the services with a stored snapshot.
func (s *SnapshotStore) Sources() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChains).ForEachBucket(func(k []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}
