package client

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/Termicotra/agendamiento/agenda/constants"
)

// attempt is the per-request replay state. It travels in the request context
// because the retry policy is shared by every request of the client.
type attempt struct {
	refreshable bool
	retried     bool
	refreshErr  error
}

type attemptKey struct{}

func withAttempt(ctx context.Context, st *attempt) context.Context {
	return context.WithValue(ctx, attemptKey{}, st)
}

func attemptFrom(ctx context.Context) *attempt {
	st, _ := ctx.Value(attemptKey{}).(*attempt)
	return st
}

// beforeAttempt runs before every send, including the replay, so the replay
// picks up the token stored by the refresh.
func (c *Client) beforeAttempt(_ retryablehttp.Logger, req *http.Request, n int) {
	token, ok, err := c.store.Get(constants.AccessTokenKey)
	if err != nil {
		c.logger.WithError(err).Warn("could not read access token")
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	c.logger.WithFields(logrus.Fields{
		"request_id": req.Header.Get("X-Request-ID"),
		"method":     req.Method,
		"uri":        req.URL.String(),
		"attempt":    n,
	}).Info("API request")
}

func (c *Client) afterAttempt(_ retryablehttp.Logger, resp *http.Response) {
	fields := logrus.Fields{
		"resp_code":      resp.StatusCode,
		"content_length": resp.ContentLength,
	}
	if resp.Request != nil {
		fields["request_id"] = resp.Request.Header.Get("X-Request-ID")
		fields["uri"] = resp.Request.URL.String()
	}
	c.logger.WithFields(fields).Info("API response")
}

// checkRetry allows exactly one replay: after the first 401 of a refreshable
// request, and only when the refresh succeeded. A failed refresh clears the
// session. Nothing else is retried.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil || err != nil || resp == nil {
		return false, nil
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return false, nil
	}

	st := attemptFrom(ctx)
	if st == nil || !st.refreshable || st.retried {
		return false, nil
	}
	st.retried = true

	if _, rerr := c.refresher.Refresh(ctx); rerr != nil {
		st.refreshErr = rerr
		c.expire(rerr)
		return false, nil
	}
	return true, nil
}

func (c *Client) expire(cause error) {
	c.logger.WithError(cause).Warn("token refresh failed; clearing session")
	if err := c.store.Clear(); err != nil {
		c.logger.WithError(err).Error("could not clear session storage")
	}
	if c.onExpired != nil {
		c.onExpired(cause)
	}
}

func noBackoff(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return 0
}

// leveledLogger adapts a logrus logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l logrus.FieldLogger
}

func (ll leveledLogger) fields(kv []interface{}) logrus.FieldLogger {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return ll.l.WithFields(f)
}

func (ll leveledLogger) Error(msg string, kv ...interface{}) { ll.fields(kv).Error(msg) }
func (ll leveledLogger) Info(msg string, kv ...interface{})  { ll.fields(kv).Info(msg) }
func (ll leveledLogger) Debug(msg string, kv ...interface{}) { ll.fields(kv).Debug(msg) }
func (ll leveledLogger) Warn(msg string, kv ...interface{})  { ll.fields(kv).Warn(msg) }
