package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

// BoltStore persists the session in a single bbolt file so it survives
// process restarts, the way browser local storage does.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the store at path. The parent directory
// is created with owner-only permissions.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "could not create session directory")
	}

	db, err := bolt.Open(filepath.Clean(path), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open session store %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not initialize session store")
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionBucket).Get([]byte(key))
		if v != nil {
			// v is only valid for the life of the transaction
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

func (b *BoltStore) Set(key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), []byte(value))
	})
}

func (b *BoltStore) Remove(keys ...string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionBucket)
		for _, k := range keys {
			if err := bkt.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltStore) Clear() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(sessionBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(sessionBucket)
		return err
	})
}

// Keys lists the stored keys in byte order.
func (b *BoltStore) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
