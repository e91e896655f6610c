package storage

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Store is the persistent key/value storage backing a session. Values are
// opaque strings; structured values go through GetJSON and SetJSON.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes the given keys. Missing keys are not an error.
	Remove(keys ...string) error
	// Clear deletes every key.
	Clear() error
	Close() error
}

// GetJSON decodes the value stored under key into v. It reports false when the
// key is absent.
func GetJSON(s Store, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, errors.Wrapf(err, "failed to decode stored %s", key)
	}
	return true, nil
}

// SetJSON stores v encoded as JSON under key.
func SetJSON(s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", key)
	}
	return s.Set(key, string(b))
}
