package permissions

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Termicotra/agendamiento/agenda/auth"
	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/agenda/storage"
)

// Fetcher returns the permissions of the current user from the API.
type Fetcher interface {
	Permissions(ctx context.Context) (auth.PermissionSet, error)
}

// Cache keeps the last snapshot in session storage and serves it while it is
// younger than the TTL.
type Cache struct {
	store   storage.Store
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
}

func NewCache(store storage.Store, fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = constants.DefaultPermissionsTTL
	}
	return &Cache{store: store, fetcher: fetcher, ttl: ttl, now: time.Now}
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Valid reports whether snap is young enough to be served without a fetch.
func (c *Cache) Valid(snap *Snapshot) bool {
	if snap == nil || snap.Timestamp.IsZero() {
		return false
	}
	return c.now().Sub(snap.Timestamp) < c.ttl
}

// Load returns the stored snapshot, valid or not, or nil when there is none
// or it cannot be read.
func (c *Cache) Load() *Snapshot {
	var snap Snapshot
	ok, err := storage.GetJSON(c.store, constants.PermissionsKey, &snap)
	if err != nil || !ok {
		return nil
	}
	return &snap
}

func (c *Cache) Save(snap Snapshot) error {
	return storage.SetJSON(c.store, constants.PermissionsKey, snap)
}

func (c *Cache) Clear() error {
	return c.store.Remove(constants.PermissionsKey)
}

// Fetch asks the API for a new snapshot, stamps it with the current time and
// stores it.
func (c *Cache) Fetch(ctx context.Context) (Snapshot, error) {
	set, err := c.fetcher.Permissions(ctx)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "could not fetch permissions")
	}

	snap := Snapshot{
		Permissions: orEmpty(set.Permissions),
		Modules:     orEmpty(set.Modules),
		Roles:       orEmpty(set.Roles),
		Timestamp:   c.now().UTC(),
	}
	if err := c.Save(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Get returns the stored snapshot when it is still valid and force is not
// set; otherwise it fetches a new one.
func (c *Cache) Get(ctx context.Context, force bool) (Snapshot, error) {
	if !force {
		if cached := c.Load(); c.Valid(cached) {
			return *cached, nil
		}
	}
	return c.Fetch(ctx)
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
