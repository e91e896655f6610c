package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/agenda/storage"
)

// State is the authentication state observed by subscribers.
type State struct {
	User          UserInfo
	Authenticated bool
}

// Session holds the authentication state of the running client and tells
// subscribers whenever it changes.
type Session struct {
	svc *Service

	mu    sync.RWMutex
	state State
	subs  map[int]func(State)
	next  int

	now func() time.Time
}

func NewSession(svc *Service) *Session {
	return &Session{
		svc:   svc,
		state: State{User: UserInfo{Roles: []string{}}},
		subs:  make(map[int]func(State)),
		now:   time.Now,
	}
}

// Check restores the session from storage. An expired access token is
// refreshed once; when that fails the session is logged out.
func (s *Session) Check(ctx context.Context) error {
	token, ok, err := s.svc.Store().Get(constants.AccessTokenKey)
	if err != nil {
		return err
	}
	if !ok || token == "" {
		s.set(State{User: UserInfo{Roles: []string{}}})
		return nil
	}

	if IsTokenExpired(token, s.now()) {
		refreshed, rerr := s.svc.RefreshToken(ctx)
		if rerr != nil {
			sessionEvent(sessionExpired, event{help: "stored token expired and could not be refreshed", err: rerr})
			s.set(State{User: UserInfo{Roles: []string{}}})
			return nil
		}
		token = refreshed
	}

	s.set(State{User: s.restoreUser(token), Authenticated: true})
	return nil
}

// restoreUser prefers the user saved at login and falls back to the token.
func (s *Session) restoreUser(token string) UserInfo {
	fromToken := UserFromToken(token)
	stored := s.svc.CurrentUser()
	if stored == nil || stored.Username == "" {
		return fromToken
	}
	info := *stored

	var roles []string
	if ok, err := storage.GetJSON(s.svc.Store(), constants.UserRolesKey, &roles); err == nil && ok && len(roles) > 0 {
		info.Roles = roles
	}
	if len(info.Roles) == 0 {
		info.Roles = fromToken.Roles
	}
	return info
}

// Login authenticates against the API and opens the session.
func (s *Session) Login(ctx context.Context, username, password string) (UserInfo, error) {
	info, err := s.svc.Login(ctx, username, password)
	if err != nil {
		return UserInfo{}, err
	}
	s.set(State{User: info, Authenticated: true})
	sessionEvent(sessionOpened, event{username: info.Username})
	return info, nil
}

// LoginWithToken opens the session from a token pair obtained elsewhere.
func (s *Session) LoginWithToken(access, refresh string) (UserInfo, error) {
	info, err := s.svc.storeSession(access, refresh)
	if err != nil {
		return UserInfo{}, err
	}
	s.set(State{User: info, Authenticated: true})
	sessionEvent(sessionOpened, event{username: info.Username})
	return info, nil
}

// Logout ends the session locally even when the API call fails; the error is
// still returned.
func (s *Session) Logout(ctx context.Context) error {
	username := s.User().Username
	err := s.svc.Logout(ctx)
	s.set(State{User: UserInfo{Roles: []string{}}})
	sessionEvent(sessionClosed, event{username: username})
	return err
}

// HandleExpired is meant for client.WithSessionExpiredHandler. The client has
// already cleared storage when it runs.
func (s *Session) HandleExpired(cause error) {
	sessionEvent(sessionExpired, event{username: s.User().Username, err: cause})
	s.set(State{User: UserInfo{Roles: []string{}}})
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) User() UserInfo {
	return s.State().User
}

func (s *Session) Authenticated() bool {
	return s.State().Authenticated
}

func (s *Session) Roles() []string {
	return append([]string{}, s.State().User.Roles...)
}

func (s *Session) HasRole(role string) bool {
	if role == "" {
		return false
	}
	for _, r := range s.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole is false for an empty list.
func (s *Session) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if s.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllRoles is false for an empty list.
func (s *Session) HasAllRoles(roles ...string) bool {
	if len(roles) == 0 {
		return false
	}
	for _, r := range roles {
		if !s.HasRole(r) {
			return false
		}
	}
	return true
}

// Subscribe registers fn to run after every state change and returns a
// function removing it.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) set(st State) {
	if st.User.Roles == nil {
		st.User.Roles = []string{}
	}

	s.mu.Lock()
	s.state = st
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}
