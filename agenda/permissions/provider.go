package permissions

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Termicotra/agendamiento/agenda/auth"
	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
	"github.com/Termicotra/agendamiento/log"
)

var (
	// ErrUsingCache is set on a state served from storage after a failed fetch.
	ErrUsingCache = errors.New("using cached permissions")
	// ErrLoadFailed is set when permissions could not be fetched and nothing
	// was stored.
	ErrLoadFailed = errors.New("could not load permissions")
)

// Source tells where the snapshot of a State came from.
type Source string

const (
	FromNone     Source = ""
	FromServer   Source = "server"
	FromCache    Source = "cache"
	FromDefaults Source = "defaults"
)

// State is the permission state handed to callers.
type State struct {
	Snapshot Snapshot
	Loading  bool
	// Err is ErrUsingCache or ErrLoadFailed wrapping the fetch error.
	Err    error
	Stale  bool
	Source Source
}

// SessionView is the part of the auth session the provider depends on.
type SessionView interface {
	Authenticated() bool
	Roles() []string
}

// Provider owns the permission state of the running client.
type Provider struct {
	cache    *Cache
	session  SessionView
	defaults RoleDefaults
	logger   logrus.FieldLogger

	mu    sync.RWMutex
	state State
}

type Option func(*Provider)

// WithRoleDefaults installs the development fallback used when the API is
// unreachable and nothing is cached.
func WithRoleDefaults(d RoleDefaults) Option {
	return func(p *Provider) { p.defaults = d }
}

func NewProvider(cache *Cache, session SessionView, opts ...Option) *Provider {
	p := &Provider{
		cache:   cache,
		session: session,
		logger:  log.API,
		state:   State{Snapshot: Empty(nil)},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Provider) setState(st State) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

// Load brings the state up to date. Without a session it resets to an empty
// snapshot. When the fetch fails the stored snapshot is used, then the role
// defaults, then an empty snapshot carrying the session roles.
func (p *Provider) Load(ctx context.Context, force bool) State {
	if !p.session.Authenticated() {
		st := State{Snapshot: Empty(nil)}
		p.setState(st)
		return st
	}

	p.mu.Lock()
	p.state.Loading = true
	p.state.Err = nil
	p.mu.Unlock()

	roles := p.session.Roles()
	snap, err := p.cache.Get(ctx, force)
	if err == nil {
		if len(snap.Roles) == 0 {
			snap.Roles = roles
		}
		st := State{Snapshot: snap, Source: FromServer}
		p.setState(st)
		return st
	}

	p.logger.WithError(err).Warn("Failed to load permissions")

	// A fetch that ended the session has already gone through Reset; the
	// fallbacks below must not bring a snapshot back.
	if customErrors.IsSessionExpired(err) || !p.session.Authenticated() {
		st := State{Snapshot: Empty(nil), Err: err}
		p.setState(st)
		return st
	}

	var st State
	if cached := p.cache.Load(); cached != nil {
		s := *cached
		s.Permissions = orEmpty(s.Permissions)
		s.Modules = orEmpty(s.Modules)
		if len(s.Roles) == 0 {
			s.Roles = roles
		}
		st = State{Snapshot: s, Stale: true, Source: FromCache, Err: wrap(ErrUsingCache, err)}
	} else if d, ok := p.defaults.Snapshot(roles, p.cache.now()); ok {
		st = State{Snapshot: d, Source: FromDefaults, Err: wrap(ErrLoadFailed, err)}
	} else {
		st = State{Snapshot: Empty(roles), Err: wrap(ErrLoadFailed, err)}
	}
	p.setState(st)
	return st
}

// Refresh reloads from the API regardless of the cache.
func (p *Provider) Refresh(ctx context.Context) State {
	return p.Load(ctx, true)
}

// Reset drops the stored and the in-memory snapshot.
func (p *Provider) Reset() {
	if err := p.cache.Clear(); err != nil {
		p.logger.WithError(err).Error("Failed to clear stored permissions")
	}
	p.setState(State{Snapshot: Empty(nil)})
}

// Current returns the state, reloading first when the held snapshot is older
// than the cache TTL. An expired snapshot is never returned without a reload
// attempt.
func (p *Provider) Current(ctx context.Context) State {
	st := p.State()
	if !p.session.Authenticated() {
		if st.Source != FromNone {
			return p.Load(ctx, false)
		}
		return st
	}
	if st.Source == FromNone || !p.cache.Valid(&st.Snapshot) {
		return p.Load(ctx, false)
	}
	return st
}

// Watch reloads the permissions every interval until ctx is done.
func (p *Provider) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = p.cache.TTL()
	}
	ticker := backoff.NewTicker(backoff.WithContext(backoff.NewConstantBackOff(interval), ctx))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			if p.session.Authenticated() {
				p.Load(ctx, true)
			}
		}
	}
}

// Bind follows session changes: permissions are loaded on login and reset
// on logout. The returned function stops following.
func (p *Provider) Bind(ctx context.Context, session *auth.Session) func() {
	return session.Subscribe(func(st auth.State) {
		if st.Authenticated {
			p.Load(ctx, false)
			return
		}
		p.Reset()
	})
}

type wrapped struct {
	sentinel error
	cause    error
}

func (w *wrapped) Error() string { return w.sentinel.Error() + ": " + w.cause.Error() }
func (w *wrapped) Is(target error) bool {
	return target == w.sentinel
}
func (w *wrapped) Unwrap() error { return w.cause }

func wrap(sentinel, cause error) error {
	return &wrapped{sentinel: sentinel, cause: cause}
}
