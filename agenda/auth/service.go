package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/agenda/storage"
)

// Service wraps the authentication endpoints of the API and keeps the token
// pair and user data in storage.
type Service struct {
	client *client.Client
	store  storage.Store
}

func NewService(c *client.Client) *Service {
	return &Service{client: c, store: c.Store()}
}

// Store is the session storage the service writes to.
func (s *Service) Store() storage.Store {
	return s.store
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	Access       string `json:"access"`
	RefreshToken string `json:"refresh_token"`
	Refresh      string `json:"refresh"`
}

func (t tokenPair) access() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Access
}

func (t tokenPair) refresh() string {
	if t.RefreshToken != "" {
		return t.RefreshToken
	}
	return t.Refresh
}

// Registration is a sign-up request; an administrator approves it later.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	CI       string `json:"ci"`
}

// PasswordChange carries the three fields the API validates.
type PasswordChange struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PermissionSet is the permission listing returned by the API.
type PermissionSet struct {
	Permissions []string `json:"permissions"`
	Modules     []string `json:"modules"`
	Roles       []string `json:"roles"`
}

// Login authenticates with username, which is matched case-insensitively, and
// stores the token pair, the user and its roles.
func (s *Service) Login(ctx context.Context, username, password string) (UserInfo, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	operationStarted(event{op: "Login", username: username})

	var tokens tokenPair
	err := s.client.Post(ctx, client.Auth, constants.LoginPath,
		map[string]string{"username": username, "password": password}, &tokens)
	if err != nil {
		operationFailed(event{op: "Login", username: username, err: err})
		return UserInfo{}, err
	}
	if tokens.access() == "" {
		err = errors.New("login response carried no access token")
		operationFailed(event{op: "Login", username: username, err: err})
		return UserInfo{}, err
	}

	info, err := s.storeSession(tokens.access(), tokens.refresh())
	if err != nil {
		return UserInfo{}, err
	}

	operationSucceeded(event{op: "Login", username: info.Username})
	return info, nil
}

// storeSession persists a token pair and the user decoded from the access token.
func (s *Service) storeSession(access, refresh string) (UserInfo, error) {
	// Permissions cached for a previous user must not survive a new login.
	if err := s.store.Remove(constants.PermissionsKey); err != nil {
		return UserInfo{}, errors.Wrap(err, "could not drop cached permissions")
	}
	if err := s.store.Set(constants.AccessTokenKey, access); err != nil {
		return UserInfo{}, errors.Wrap(err, "could not store access token")
	}
	if refresh != "" {
		if err := s.store.Set(constants.RefreshTokenKey, refresh); err != nil {
			return UserInfo{}, errors.Wrap(err, "could not store refresh token")
		}
	}

	info := UserFromToken(access)
	if err := storage.SetJSON(s.store, constants.UserKey, info); err != nil {
		return UserInfo{}, err
	}
	if len(info.Roles) > 0 {
		if err := storage.SetJSON(s.store, constants.UserRolesKey, info.Roles); err != nil {
			return UserInfo{}, err
		}
	}
	return info, nil
}

func (s *Service) Register(ctx context.Context, r Registration) (client.Record, error) {
	operationStarted(event{op: "Register", username: r.Username})
	out := client.Record{}
	if err := s.client.Post(ctx, client.Auth, constants.RegisterPath, r, &out); err != nil {
		operationFailed(event{op: "Register", username: r.Username, err: err})
		return nil, err
	}
	operationSucceeded(event{op: "Register", username: r.Username})
	return out, nil
}

// Logout invalidates the refresh token on the server when there is one. The
// local session is removed whatever the server answers.
func (s *Service) Logout(ctx context.Context) error {
	defer s.ClearStorage()

	refresh, ok, err := s.store.Get(constants.RefreshTokenKey)
	if err != nil || !ok || refresh == "" {
		return err
	}

	operationStarted(event{op: "Logout"})
	if err := s.client.Post(ctx, client.Auth, constants.LogoutPath,
		map[string]string{"refresh": refresh}, nil); err != nil {
		operationFailed(event{op: "Logout", err: err})
		return err
	}
	operationSucceeded(event{op: "Logout"})
	return nil
}

// ClearStorage removes every session key.
func (s *Service) ClearStorage() {
	if err := s.store.Remove(constants.SessionKeys...); err != nil {
		operationFailed(event{op: "ClearStorage", err: err})
	}
}

func (s *Service) Profile(ctx context.Context) (client.Record, error) {
	out := client.Record{}
	if err := s.client.Get(ctx, client.Auth, constants.ProfilePath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ChangePassword(ctx context.Context, p PasswordChange) (client.Record, error) {
	operationStarted(event{op: "ChangePassword"})
	out := client.Record{}
	if err := s.client.Post(ctx, client.Auth, constants.ChangePasswordPath, p, &out); err != nil {
		operationFailed(event{op: "ChangePassword", err: err})
		return nil, err
	}
	operationSucceeded(event{op: "ChangePassword"})
	return out, nil
}

// Permissions fetches the permission listing of the current user. Missing
// lists come back empty, never nil.
func (s *Service) Permissions(ctx context.Context) (PermissionSet, error) {
	var set PermissionSet
	if err := s.client.Get(ctx, client.Auth, constants.PermissionsPath, nil, &set); err != nil {
		return PermissionSet{}, err
	}
	if set.Permissions == nil {
		set.Permissions = []string{}
	}
	if set.Modules == nil {
		set.Modules = []string{}
	}
	if set.Roles == nil {
		set.Roles = []string{}
	}
	return set, nil
}

// RefreshToken renews the access token outside of the request retry path. A
// failure ends the session.
func (s *Service) RefreshToken(ctx context.Context) (string, error) {
	token, err := s.client.Refresher().Refresh(ctx)
	if err != nil {
		operationFailed(event{op: "RefreshToken", err: err})
		s.ClearStorage()
		return "", err
	}
	return token, nil
}

// CurrentUser returns the stored user, or nil when there is none or it cannot
// be read.
func (s *Service) CurrentUser() *UserInfo {
	var info UserInfo
	ok, err := storage.GetJSON(s.store, constants.UserKey, &info)
	if err != nil || !ok {
		return nil
	}
	return &info
}

// IsAuthenticated reports whether an access token is stored. It does not look
// at expiry.
func (s *Service) IsAuthenticated() bool {
	token, ok, err := s.store.Get(constants.AccessTokenKey)
	return err == nil && ok && token != ""
}

// ListRequests returns registration requests, optionally filtered by status.
func (s *Service) ListRequests(ctx context.Context, status string) ([]client.Record, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"estado": {status}}
	}
	var raw json.RawMessage
	if err := s.client.Get(ctx, client.Auth, constants.RequestsPath, q, &raw); err != nil {
		return nil, err
	}
	return client.DecodeList(raw)
}

// ApproveRequest accepts registration request id into group.
func (s *Service) ApproveRequest(ctx context.Context, id, group string) (client.Record, error) {
	if group == "" {
		return nil, errors.New("a group is required to approve a request")
	}
	operationStarted(event{op: "ApproveRequest", help: id})
	out := client.Record{}
	path := fmt.Sprintf("%s%s/aprobar/", constants.RequestsPath, url.PathEscape(id))
	if err := s.client.Post(ctx, client.Auth, path, map[string]string{"group": group}, &out); err != nil {
		operationFailed(event{op: "ApproveRequest", help: id, err: err})
		return nil, err
	}
	operationSucceeded(event{op: "ApproveRequest", help: id})
	return out, nil
}

func (s *Service) RejectRequest(ctx context.Context, id string) (client.Record, error) {
	operationStarted(event{op: "RejectRequest", help: id})
	out := client.Record{}
	path := fmt.Sprintf("%s%s/rechazar/", constants.RequestsPath, url.PathEscape(id))
	if err := s.client.Post(ctx, client.Auth, path, nil, &out); err != nil {
		operationFailed(event{op: "RejectRequest", help: id, err: err})
		return nil, err
	}
	operationSucceeded(event{op: "RejectRequest", help: id})
	return out, nil
}
