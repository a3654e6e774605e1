package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reauthRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "thema_reauth_retries_total",
	Help: "Calls retried after a 401 and a fresh login, by endpoint",
}, []string{"endpoint"})

// maxAuthAttempts is the number of tries an authenticated call gets: the
// original one and a single retry with a new token.
const maxAuthAttempts = 2

// authorizedCall sends one authenticated request with the given token.
type authorizedCall func(token string) (status int, body []byte, err error)

// withReauth runs fn with a valid token. If the service answers 401 the
// token is dropped, a new one is obtained and fn runs once more. A second
// 401 is returned as an APIError wrapping ErrUnauthorized.
func (c *Client) withReauth(ctx context.Context, op, endpoint string, fn authorizedCall) (int, []byte, error) {
	for attempt := 1; ; attempt++ {
		token, err := c.session.Token(ctx)
		if err != nil {
			return 0, nil, err
		}

		status, body, err := fn(token)
		if err != nil {
			return status, body, err
		}
		if status != http.StatusUnauthorized {
			return status, body, nil
		}

		if !shouldRetry(ErrorClassAuth) || attempt >= maxAuthAttempts {
			c.logger.Error().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Msg("Token rejected after re-login")
			return status, body, newAPIError(op, status, body)
		}

		reauthRetriesTotal.WithLabelValues(endpoint).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Msg("Token rejected, logging in again")
		c.session.Invalidate(token)
	}
}

// isFatal reports errors that must stop a whole batch run.
func isFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrClosed)
}
