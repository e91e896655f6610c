package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Termicotra/agendamiento/agenda/constants"
	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
	"github.com/Termicotra/agendamiento/agenda/storage"
)

// Refresher exchanges the stored refresh token for a new access token. It
// talks to the API with a bare http.Client so a failing refresh never
// re-enters the retry policy.
type Refresher struct {
	url    string
	store  storage.Store
	http   *http.Client
	logger logrus.FieldLogger
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Refresh stores and returns a new access token. A rotated refresh token, when
// the API sends one, replaces the stored one.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	refreshToken, ok, err := r.store.Get(constants.RefreshTokenKey)
	if err != nil {
		return "", errors.Wrap(err, "could not read refresh token")
	}
	if !ok || refreshToken == "" {
		return "", customErrors.ErrNoRefreshToken
	}

	body, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	r.logger.WithField("uri", r.url).Info("refreshing access token")
	resp, err := r.http.Do(req)
	if err != nil {
		return "", &customErrors.ConnectionError{Err: err, URL: r.url}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", customErrors.FromResponse(resp)
	}

	var tokens refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return "", errors.Wrap(err, "could not decode token refresh response")
	}
	if tokens.Access == "" {
		return "", errors.New("token refresh response carried no access token")
	}

	if err := r.store.Set(constants.AccessTokenKey, tokens.Access); err != nil {
		return "", errors.Wrap(err, "could not store access token")
	}
	if tokens.Refresh != "" {
		if err := r.store.Set(constants.RefreshTokenKey, tokens.Refresh); err != nil {
			return "", errors.Wrap(err, "could not store refresh token")
		}
	}

	return tokens.Access, nil
}
