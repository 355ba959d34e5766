package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	badgerSecretKey        = "tokenstore/secret/jwt"
	badgerRevocationPrefix = "tokenstore/revoked/"
	badgerConflictRetries  = 5

	errBadgerOpenFmt = "open badger at %s: %w"
)

type revocationEntry struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// BadgerRepository implements both storage ports on an embedded badger database.
// It suits single-node deployments; badger's optimistic transactions make the
// secret insert atomic across goroutines sharing the same database.
type BadgerRepository struct {
	db *badger.DB
}

func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

// OpenBadger opens (or creates) a badger database in dir with logging routed nowhere.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf(errBadgerOpenFmt, dir, err)
	}
	return db, nil
}

func (r *BadgerRepository) GetSecret(_ context.Context) (string, bool, error) {
	var secret string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerSecretKey))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		secret = string(val)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return secret, true, nil
}

func (r *BadgerRepository) InsertSecretIfAbsent(ctx context.Context, value string) (string, error) {
	var persisted string

	for attempt := 0; attempt < badgerConflictRetries; attempt++ {
		err := r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(badgerSecretKey))
			if err == nil {
				val, err := item.ValueCopy(nil)
				persisted = string(val)
				return err
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			persisted = value
			return txn.Set([]byte(badgerSecretKey), []byte(value))
		})

		// A conflicting commit means another writer got there first; re-read.
		if errors.Is(err, badger.ErrConflict) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		return persisted, err
	}

	secret, found, err := r.GetSecret(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "", badger.ErrConflict
	}
	return secret, nil
}

func (r *BadgerRepository) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	data, err := json.Marshal(revocationEntry{ExpiresAt: expiresAt.UTC()})
	if err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(revocationKey(jti), data)
		// Entries already past expiry are kept until PurgeExpired removes them.
		if ttl := time.Until(expiresAt); ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (r *BadgerRepository) IsRevoked(_ context.Context, jti string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(revocationKey(jti))
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BadgerRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64

	err := r.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerRevocationPrefix)
		it := txn.NewIterator(opts)

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry revocationEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}

			if now.After(entry.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		it.Close()

		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})

	return count, err
}

func revocationKey(jti string) []byte {
	return []byte(badgerRevocationPrefix + jti)
}
