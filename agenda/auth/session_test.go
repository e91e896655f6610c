package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/agenda/storage"
)

type SessionTestSuite struct {
	suite.Suite
	server       *httptest.Server
	store        *storage.MemoryStore
	session      *Session
	now          time.Time
	refreshFails bool
	states       []State
}

func (s *SessionTestSuite) SetupTest() {
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.refreshFails = false
	s.states = nil

	r := chi.NewRouter()
	r.Post(constants.RefreshTokenPath, func(w http.ResponseWriter, r *http.Request) {
		if s.refreshFails {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		render.JSON(w, r, map[string]string{"access": s.token("refreshed", time.Hour)})
	})
	r.Post(constants.LogoutPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.server = httptest.NewServer(r)

	s.store = storage.NewMemoryStore()
	var sess *Session
	c := client.New(client.Config{BaseURL: s.server.URL, Prefix: "/api"}, s.store,
		client.WithSessionExpiredHandler(func(err error) { sess.HandleExpired(err) }))
	sess = NewSession(NewService(c))
	sess.now = func() time.Time { return s.now }
	sess.Subscribe(func(st State) { s.states = append(s.states, st) })
	s.session = sess
}

func (s *SessionTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *SessionTestSuite) token(username string, ttl time.Duration) string {
	return makeToken(s.T(), jwt.MapClaims{
		"username": username,
		"roles":    []string{"recepcionista", "administradores"},
		"exp":      s.now.Add(ttl).Unix(),
	})
}

func (s *SessionTestSuite) TestCheckWithoutToken() {
	assert.NoError(s.T(), s.session.Check(context.Background()))
	assert.False(s.T(), s.session.Authenticated())
	assert.Equal(s.T(), []string{}, s.session.Roles())
	assert.Len(s.T(), s.states, 1)
}

func (s *SessionTestSuite) TestCheckRestoresValidToken() {
	_, err := s.session.LoginWithToken(s.token("ana", time.Hour), "r")
	require.NoError(s.T(), err)
	s.states = nil

	fresh := NewSession(s.session.svc)
	fresh.now = func() time.Time { return s.now }
	assert.NoError(s.T(), fresh.Check(context.Background()))
	assert.True(s.T(), fresh.Authenticated())
	assert.Equal(s.T(), "ana", fresh.User().Username)
	assert.True(s.T(), fresh.HasRole("recepcionista"))
}

func (s *SessionTestSuite) TestCheckRefreshesExpiredToken() {
	require.NoError(s.T(), s.store.Set(constants.AccessTokenKey, s.token("ana", -time.Minute)))
	require.NoError(s.T(), s.store.Set(constants.RefreshTokenKey, "r"))

	assert.NoError(s.T(), s.session.Check(context.Background()))
	assert.True(s.T(), s.session.Authenticated())
	assert.Equal(s.T(), "refreshed", s.session.User().Username)
}

func (s *SessionTestSuite) TestCheckLogsOutWhenRefreshFails() {
	require.NoError(s.T(), s.store.Set(constants.AccessTokenKey, s.token("ana", -time.Minute)))
	require.NoError(s.T(), s.store.Set(constants.RefreshTokenKey, "r"))
	s.refreshFails = true

	assert.NoError(s.T(), s.session.Check(context.Background()))
	assert.False(s.T(), s.session.Authenticated())
	assert.Equal(s.T(), 0, s.store.Len())
}

func (s *SessionTestSuite) TestRoleChecks() {
	_, err := s.session.LoginWithToken(s.token("ana", time.Hour), "")
	require.NoError(s.T(), err)

	assert.True(s.T(), s.session.HasAnyRole("doctor", "recepcionista"))
	assert.False(s.T(), s.session.HasAnyRole())
	assert.False(s.T(), s.session.HasAnyRole("doctor"))
	assert.True(s.T(), s.session.HasAllRoles("recepcionista", "administradores"))
	assert.False(s.T(), s.session.HasAllRoles("recepcionista", "doctor"))
	assert.False(s.T(), s.session.HasAllRoles())
	assert.False(s.T(), s.session.HasRole(""))
}

func (s *SessionTestSuite) TestLogoutNotifiesAndClears() {
	_, err := s.session.LoginWithToken(s.token("ana", time.Hour), "r")
	require.NoError(s.T(), err)

	assert.NoError(s.T(), s.session.Logout(context.Background()))
	assert.False(s.T(), s.session.Authenticated())
	assert.Equal(s.T(), 0, s.store.Len())

	require.Len(s.T(), s.states, 2)
	assert.True(s.T(), s.states[0].Authenticated)
	assert.False(s.T(), s.states[1].Authenticated)
}

func (s *SessionTestSuite) TestExpiredHandlerEndsSession() {
	_, err := s.session.LoginWithToken(s.token("ana", time.Hour), "")
	require.NoError(s.T(), err)

	s.session.HandleExpired(assert.AnError)
	assert.False(s.T(), s.session.Authenticated())
}

func (s *SessionTestSuite) TestUnsubscribe() {
	calls := 0
	stop := s.session.Subscribe(func(State) { calls++ })
	_, _ = s.session.LoginWithToken(s.token("ana", time.Hour), "")
	stop()
	_, _ = s.session.LoginWithToken(s.token("ana", time.Hour), "")
	assert.Equal(s.T(), 1, calls)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
