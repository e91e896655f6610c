package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Termicotra/agendamiento/agenda/constants"
	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
	"github.com/Termicotra/agendamiento/agenda/storage"
	"github.com/Termicotra/agendamiento/log"
)

// Scope selects which base URL a request is resolved against.
type Scope int

const (
	// API requests go to BaseURL+Prefix.
	API Scope = iota
	// Auth requests go to BaseURL and are used for /auth/api/... endpoints.
	Auth
)

// Request describes one call to the API.
type Request struct {
	Scope  Scope
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when non-nil.
	Body interface{}
}

// Client is the single entry point to the API. Every request carries the
// stored access token; a 401 is answered with one token refresh and one
// replay of the request.
type Client struct {
	cfg       Config
	store     storage.Store
	http      *retryablehttp.Client
	refresher *Refresher
	onExpired func(error)
	logger    logrus.FieldLogger
}

type Option func(*Client)

// WithSessionExpiredHandler registers fn to run after a failed refresh has
// cleared the session. It plays the part of sending the user back to login.
func WithSessionExpiredHandler(fn func(error)) Option {
	return func(c *Client) { c.onExpired = fn }
}

// WithHTTPClient replaces the underlying transport client. Its Timeout is
// overwritten by the configured one when that is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http.HTTPClient = hc }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg Config, store storage.Store, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		store:  store,
		logger: log.Request,
		http: &retryablehttp.Client{
			HTTPClient:   &http.Client{},
			RetryMax:     1,
			Backoff:      noBackoff,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
		},
	}
	for _, o := range opts {
		o(c)
	}

	if cfg.Timeout > 0 {
		c.http.HTTPClient.Timeout = cfg.Timeout
	}
	c.http.Logger = leveledLogger{c.logger}
	c.http.RequestLogHook = c.beforeAttempt
	c.http.ResponseLogHook = c.afterAttempt
	c.http.CheckRetry = c.checkRetry

	c.refresher = &Refresher{
		url:    c.URL(Auth, constants.RefreshTokenPath),
		store:  store,
		http:   c.http.HTTPClient,
		logger: c.logger,
	}

	return c
}

// Store exposes the session storage the client reads tokens from.
func (c *Client) Store() storage.Store {
	return c.store
}

// Refresher returns the component used to renew the access token.
func (c *Client) Refresher() *Refresher {
	return c.refresher
}

// URL resolves path against the base URL of scope.
func (c *Client) URL(scope Scope, path string) string {
	base := c.cfg.apiBase()
	if scope == Auth {
		base = c.cfg.authBase()
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// Do sends r and decodes a successful JSON answer into out, which may be nil.
func (c *Client) Do(ctx context.Context, r Request, out interface{}) error {
	target := c.URL(r.Scope, r.Path)
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body interface{}
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return errors.Wrap(err, "could not encode request body")
		}
		body = b
	}

	st := &attempt{refreshable: refreshable(r)}
	req, err := retryablehttp.NewRequestWithContext(withAttempt(ctx, st), r.Method, target, body)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewRandom().String())

	resp, err := c.http.Do(req)
	if st.refreshErr != nil {
		if resp != nil {
			drain(resp.Body)
		}
		return &customErrors.SessionExpiredError{Err: st.refreshErr}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &customErrors.ConnectionError{Err: err, URL: target}
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return customErrors.FromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "could not decode response from %s %s", r.Method, r.Path)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, scope Scope, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, Request{Scope: scope, Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, scope Scope, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Scope: scope, Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, scope Scope, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Scope: scope, Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, scope Scope, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Scope: scope, Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, scope Scope, path string) error {
	return c.Do(ctx, Request{Scope: scope, Method: http.MethodDelete, Path: path}, nil)
}

// Login and token refresh answer 401 for bad credentials; refreshing there
// would loop.
func refreshable(r Request) bool {
	if r.Scope != Auth {
		return true
	}
	return !strings.Contains(r.Path, "/login") && !strings.Contains(r.Path, "/token/refresh")
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	body.Close()
}
