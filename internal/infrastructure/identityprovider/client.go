// Package identityprovider talks to the identity provider's backend REST API.
// Calls go through a circuit breaker so an unavailable provider fails fast
// instead of stacking up request timeouts.
package identityprovider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the provider answers 404
var ErrNotFound = errors.New("identity provider resource not found")

// APIError is a non-2xx answer from the provider
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Body)
}

// Client implements the provider operations the application uses
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// New creates a provider client from configuration
func New(cfg config.IdentityProviderConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxFails := cfg.BreakerMaxFails
	if maxFails == 0 {
		maxFails = 5
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.SecretKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("identity_provider"),
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "identity-provider",
		MaxRequests: cfg.BreakerHalfOpens,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		// 404s and other 4xx answers mean the provider is healthy
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			return err == nil || errors.Is(err, ErrNotFound) || (errors.As(err, &apiErr) && apiErr.Status < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// UpdateOrgMembershipRole changes a user's role inside an organization
func (c *Client) UpdateOrgMembershipRole(ctx context.Context, orgID, userID string, role identity.Role) error {
	path := fmt.Sprintf("/organizations/%s/memberships/%s", url.PathEscape(orgID), url.PathEscape(userID))
	_, err := c.do(ctx, http.MethodPatch, path, map[string]any{"role": role})
	return err
}

// UpdateUserMetadataRole stores the global role in the user's public metadata
func (c *Client) UpdateUserMetadataRole(ctx context.Context, userID string, role identity.Role) error {
	path := fmt.Sprintf("/users/%s/metadata", url.PathEscape(userID))
	_, err := c.do(ctx, http.MethodPatch, path, map[string]any{
		"public_metadata": map[string]any{"role": role},
	})
	return err
}

// DeleteOrganization removes the organization; a missing one counts as deleted
func (c *Client) DeleteOrganization(ctx context.Context, orgID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/organizations/"+url.PathEscape(orgID), nil)
	if errors.Is(err, ErrNotFound) {
		c.logger.Info("Organization already gone", zap.String("org_id", orgID))
		return nil
	}
	return err
}

type membershipList struct {
	Data []struct {
		PublicUserData struct {
			UserID string `json:"user_id"`
		} `json:"public_user_data"`
	} `json:"data"`
	TotalCount int `json:"total_count"`
}

// IsOrgMember reports whether userID belongs to orgID
func (c *Client) IsOrgMember(ctx context.Context, orgID, userID string) (bool, error) {
	q := url.Values{"user_id": {userID}, "limit": {"1"}}
	path := fmt.Sprintf("/organizations/%s/memberships?%s", url.PathEscape(orgID), q.Encode())
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var list membershipList
	if err := json.Unmarshal(body, &list); err != nil {
		return false, fmt.Errorf("decode memberships: %w", err)
	}
	for _, m := range list.Data {
		if m.PublicUserData.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			buf, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(buf)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.secret)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		c.logger.Debug("Identity provider call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", time.Since(start)),
		)

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode >= 300:
			return nil, &APIError{Status: resp.StatusCode, Body: truncate(string(data), 300)}
		}
		return data, nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
