package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	runBucket        = "runs"
	articleBucket    = "articles"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("bucket missing")

// boltStore implements Store on a single bbolt file.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{runBucket, articleBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveRun stores rec under its ID, stamping its expiry from the store TTL.
func (b *boltStore) SaveRun(rec RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run record without id")
	}
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	rec.ExpiresAt = now.Add(b.ttl).UTC()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("%s: %w", runBucket, errBucketMissing)
		}
		return bucket.Put([]byte(rec.ID), payload)
	})
}

// Runs returns unexpired run records oldest first.
func (b *boltStore) Runs() ([]RunRecord, error) {
	now := b.now()
	var out []RunRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("%s: %w", runBucket, errBucketMissing)
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			if !rec.ExpiresAt.IsZero() && !rec.ExpiresAt.After(now) {
				return nil
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

// SeenArticle reports whether link was marked and has not expired yet.
// Expired entries are removed on read.
func (b *boltStore) SeenArticle(link string) (bool, error) {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("%s: %w", articleBucket, errBucketMissing)
		}

		key := []byte(link)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}
		if expiry, ok := decodeExpiry(value); !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}
		exists = true
		return nil
	})
	return exists, err
}

// MarkArticle records link as published for one TTL.
func (b *boltStore) MarkArticle(link string) error {
	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(articleBucket))
		if bucket == nil {
			return fmt.Errorf("%s: %w", articleBucket, errBucketMissing)
		}
		return bucket.Put([]byte(link), encodeExpiry(now.Add(b.ttl)))
	})
}

// maybeCleanupExpired sweeps both buckets at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := sweepBucket(tx, articleBucket, now, func(v []byte) (time.Time, bool) {
			return decodeExpiry(v)
		}); err != nil {
			return err
		}
		return sweepBucket(tx, runBucket, now, func(v []byte) (time.Time, bool) {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil || rec.ExpiresAt.IsZero() {
				return time.Time{}, false
			}
			return rec.ExpiresAt, true
		})
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func sweepBucket(tx *bolt.Tx, name string, now time.Time, expiryOf func([]byte) (time.Time, bool)) error {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return fmt.Errorf("%s: %w", name, errBucketMissing)
	}
	cursor := bucket.Cursor()
	for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
		if expiry, ok := expiryOf(v); !ok || !expiry.After(now) {
			if err := cursor.Delete(); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
