package permissions

import (
	"context"
	"sync"

	"github.com/Termicotra/agendamiento/agenda/auth"
)

type fakeFetcher struct {
	mu    sync.Mutex
	set   auth.PermissionSet
	err   error
	calls int
	// during runs inside the fetch, before it returns.
	during func()
}

func (f *fakeFetcher) Permissions(ctx context.Context) (auth.PermissionSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return auth.PermissionSet{}, f.err
	}
	return f.set, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeSession struct {
	authenticated bool
	roles         []string
}

func (s fakeSession) Authenticated() bool { return s.authenticated }
func (s fakeSession) Roles() []string     { return s.roles }
