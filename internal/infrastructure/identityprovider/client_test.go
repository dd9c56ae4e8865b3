package identityprovider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.IdentityProviderConfig{
		BaseURL:         srv.URL + "/v1",
		SecretKey:       "sk_test",
		Timeout:         time.Second,
		BreakerMaxFails: 2,
		BreakerOpenFor:  time.Minute,
	}, nil)
}

func TestClient_UpdateOrgMembershipRole(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/organizations/org_1/memberships/user_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "org:admin", body["role"])
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.UpdateOrgMembershipRole(context.Background(), "org_1", "user_1", identity.OrgRoleAdmin))
}

func TestClient_UpdateUserMetadataRole(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/user_1/metadata", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"public_metadata":{"role":"member"}}`, string(raw))
	})
	require.NoError(t, c.UpdateUserMetadataRole(context.Background(), "user_1", identity.RoleMember))
}

func TestClient_DeleteOrganization_MissingIsOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, c.DeleteOrganization(context.Background(), "org_1"))
}

func TestClient_IsOrgMember(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user_2", r.URL.Query().Get("user_id"))
		_, _ = w.Write([]byte(`{"data":[{"public_user_data":{"user_id":"user_2"}}],"total_count":1}`))
	})
	ok, err := c.IsOrgMember(context.Background(), "org_1", "user_2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"code":"form_param_invalid"}]}`))
	})
	for range 4 {
		err := c.UpdateUserMetadataRole(context.Background(), "user_1", identity.RoleAdmin)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestClient_ServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()
	for range 2 {
		assert.Error(t, c.DeleteOrganization(ctx, "org_1"))
	}
	err := c.DeleteOrganization(ctx, "org_1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())
}
