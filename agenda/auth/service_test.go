package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
	"github.com/Termicotra/agendamiento/agenda/storage"
)

type ServiceTestSuite struct {
	suite.Suite
	server   *httptest.Server
	store    *storage.MemoryStore
	service  *Service
	username string
	access   string

	loginBody   map[string]string
	logoutBody  map[string]string
	approveBody map[string]string
	requestsQ   string
}

func (s *ServiceTestSuite) SetupTest() {
	s.loginBody, s.logoutBody, s.approveBody, s.requestsQ = nil, nil, nil, ""
	s.username = strings.ToLower(randomdata.SillyName())
	s.access = makeToken(s.T(), jwt.MapClaims{
		"username": s.username,
		"roles":    []string{"doctor"},
		"user_id":  12,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	r := chi.NewRouter()
	r.Post(constants.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&s.loginBody)
		if s.loginBody["password"] != "secret" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		render.JSON(w, r, map[string]string{"access_token": s.access, "refresh_token": "refresh-1"})
	})
	r.Post(constants.LogoutPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&s.logoutBody)
		w.WriteHeader(http.StatusResetContent)
	})
	r.Post(constants.RegisterPath, func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]interface{}{"errors": map[string]interface{}{"ci": []string{"Ya existe."}}})
	})
	r.Get(constants.ProfilePath, func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"username": s.username})
	})
	r.Post(constants.ChangePasswordPath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["new_password"] != body["confirm_password"] {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]interface{}{"errors": map[string]string{"confirm_password": "No coincide."}})
			return
		}
		render.JSON(w, r, map[string]string{"message": "ok"})
	})
	r.Get(constants.PermissionsPath, func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]interface{}{"permissions": []string{"turno.view"}})
	})
	r.Get(constants.RequestsPath, func(w http.ResponseWriter, r *http.Request) {
		s.requestsQ = r.URL.RawQuery
		render.JSON(w, r, map[string]interface{}{"results": []map[string]interface{}{{"id": 3, "username": "nuevo"}}})
	})
	r.Post(constants.RequestsPath+"{id}/aprobar/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&s.approveBody)
		render.JSON(w, r, map[string]string{"id": chi.URLParam(r, "id"), "estado": constants.RequestApproved})
	})
	r.Post(constants.RequestsPath+"{id}/rechazar/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"id": chi.URLParam(r, "id"), "estado": constants.RequestRejected})
	})
	s.server = httptest.NewServer(r)

	s.store = storage.NewMemoryStore()
	c := client.New(client.Config{BaseURL: s.server.URL, Prefix: "/api", Timeout: 2 * time.Second}, s.store)
	s.service = NewService(c)
}

func (s *ServiceTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServiceTestSuite) TestLogin() {
	info, err := s.service.Login(context.Background(), strings.ToUpper(s.username), "secret")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), s.username, s.loginBody["username"])
	assert.Equal(s.T(), s.username, info.Username)
	assert.Equal(s.T(), []string{"doctor"}, info.Roles)
	assert.Equal(s.T(), "12", info.UserID)

	jwtVal, _, _ := s.store.Get(constants.AccessTokenKey)
	assert.Equal(s.T(), s.access, jwtVal)
	refresh, _, _ := s.store.Get(constants.RefreshTokenKey)
	assert.Equal(s.T(), "refresh-1", refresh)

	var roles []string
	ok, err := storage.GetJSON(s.store, constants.UserRolesKey, &roles)
	assert.True(s.T(), ok)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"doctor"}, roles)

	assert.True(s.T(), s.service.IsAuthenticated())
	assert.Equal(s.T(), s.username, s.service.CurrentUser().Username)
}

func (s *ServiceTestSuite) TestLoginBadCredentials() {
	_, err := s.service.Login(context.Background(), s.username, "wrong")
	assert.True(s.T(), customErrors.IsAuthError(err))
	assert.Equal(s.T(), "No active account found with the given credentials", customErrors.Localize(err, customErrors.Default))
	assert.False(s.T(), s.service.IsAuthenticated())
	assert.Nil(s.T(), s.service.CurrentUser())
}

func (s *ServiceTestSuite) TestLogoutClearsEverything() {
	_, err := s.service.Login(context.Background(), s.username, "secret")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.Set(constants.PermissionsKey, `{"permissions":[]}`))

	assert.NoError(s.T(), s.service.Logout(context.Background()))
	assert.Equal(s.T(), "refresh-1", s.logoutBody["refresh"])
	for _, key := range constants.SessionKeys {
		_, ok, _ := s.store.Get(key)
		assert.False(s.T(), ok, key)
	}
}

func (s *ServiceTestSuite) TestLoginDropsPreviousPermissions() {
	require.NoError(s.T(), s.store.Set(constants.PermissionsKey, `{"permissions":["empleado.view"]}`))

	_, err := s.service.Login(context.Background(), s.username, "secret")
	require.NoError(s.T(), err)
	_, ok, _ := s.store.Get(constants.PermissionsKey)
	assert.False(s.T(), ok)
}

func (s *ServiceTestSuite) TestLogoutWithoutRefreshToken() {
	require.NoError(s.T(), s.store.Set(constants.AccessTokenKey, s.access))

	assert.NoError(s.T(), s.service.Logout(context.Background()))
	assert.Nil(s.T(), s.logoutBody)
	assert.Equal(s.T(), 0, s.store.Len())
}

func (s *ServiceTestSuite) TestLogoutServerDown() {
	require.NoError(s.T(), s.store.Set(constants.RefreshTokenKey, "refresh-1"))
	s.server.Close()

	err := s.service.Logout(context.Background())
	assert.Error(s.T(), err)
	assert.Equal(s.T(), 0, s.store.Len())
}

func (s *ServiceTestSuite) TestRegisterValidation() {
	_, err := s.service.Register(context.Background(), Registration{Username: s.username, Password: "x", CI: "123"})
	assert.True(s.T(), customErrors.IsValidationError(err))
	assert.Equal(s.T(), []string{"Ya existe."}, customErrors.FieldErrors(err, "ci"))
}

func (s *ServiceTestSuite) TestProfileAndPassword() {
	profile, err := s.service.Profile(context.Background())
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), s.username, profile["username"])

	_, err = s.service.ChangePassword(context.Background(), PasswordChange{OldPassword: "a", NewPassword: "b", ConfirmPassword: "c"})
	assert.Equal(s.T(), []string{"No coincide."}, customErrors.FieldErrors(err, "confirm_password"))

	out, err := s.service.ChangePassword(context.Background(), PasswordChange{OldPassword: "a", NewPassword: "b", ConfirmPassword: "b"})
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "ok", out["message"])
}

func (s *ServiceTestSuite) TestPermissionsFillsMissingLists() {
	set, err := s.service.Permissions(context.Background())
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"turno.view"}, set.Permissions)
	assert.Equal(s.T(), []string{}, set.Modules)
	assert.Equal(s.T(), []string{}, set.Roles)
}

func (s *ServiceTestSuite) TestRegistrationRequests() {
	list, err := s.service.ListRequests(context.Background(), constants.RequestPending)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), list, 1)
	assert.Equal(s.T(), "estado=pendiente", s.requestsQ)

	out, err := s.service.ApproveRequest(context.Background(), "3", "pacientes")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "3", out["id"])
	assert.Equal(s.T(), "pacientes", s.approveBody["group"])

	_, err = s.service.ApproveRequest(context.Background(), "3", "")
	assert.Error(s.T(), err)

	out, err = s.service.RejectRequest(context.Background(), "4")
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), constants.RequestRejected, out["estado"])
}

func (s *ServiceTestSuite) TestRefreshTokenFailureClearsStorage() {
	require.NoError(s.T(), s.store.Set(constants.AccessTokenKey, s.access))
	// No refresh token stored.
	_, err := s.service.RefreshToken(context.Background())
	assert.ErrorIs(s.T(), err, customErrors.ErrNoRefreshToken)
	assert.False(s.T(), s.service.IsAuthenticated())
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
