package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/config"
)

const testSecret = "a-very-long-shared-secret-for-hs256-tests"

func signHS(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func registered(sub string, exp time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "https://clerk.example.com",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(exp)),
	}
}

func hsVerifier(t *testing.T) *SessionVerifier {
	t.Helper()
	v, err := NewSessionVerifier(config.AuthConfig{
		Algorithm: "HS256",
		Secret:    testSecret,
		Issuer:    "https://clerk.example.com",
	})
	require.NoError(t, err)
	return v
}

func TestSessionVerifier_HS256(t *testing.T) {
	v := hsVerifier(t)

	t.Run("org admin", func(t *testing.T) {
		token := signHS(t, &SessionClaims{
			RegisteredClaims: registered("user_1", time.Minute),
			OrgID:            "org_1",
			OrgRole:          "org:admin",
		})
		actor, err := v.VerifyActor(token)
		require.NoError(t, err)
		assert.Equal(t, "user_1", actor.UserID)
		assert.Equal(t, identity.OrgRoleAdmin, actor.EffectiveRole())
	})

	t.Run("compact org claim gets prefixed", func(t *testing.T) {
		token := signHS(t, &SessionClaims{
			RegisteredClaims: registered("user_1", time.Minute),
			Org:              &OrgClaims{ID: "org_2", Role: "member"},
		})
		actor, err := v.VerifyActor(token)
		require.NoError(t, err)
		assert.Equal(t, "org_2", actor.OrgID)
		assert.Equal(t, identity.OrgRoleMember, actor.OrgRole)
	})

	t.Run("personal role from public metadata", func(t *testing.T) {
		token := signHS(t, &SessionClaims{
			RegisteredClaims: registered("user_1", time.Minute),
			PublicMetadata:   &PublicMetadata{Role: "admin"},
		})
		actor, err := v.VerifyActor(token)
		require.NoError(t, err)
		assert.Equal(t, identity.RoleAdmin, actor.EffectiveRole())
	})

	t.Run("no roles resolves to viewer", func(t *testing.T) {
		actor, err := v.VerifyActor(signHS(t, &SessionClaims{RegisteredClaims: registered("user_1", time.Minute)}))
		require.NoError(t, err)
		assert.Equal(t, identity.RoleViewer, actor.EffectiveRole())
	})

	t.Run("expired", func(t *testing.T) {
		_, err := v.Verify(signHS(t, &SessionClaims{RegisteredClaims: registered("user_1", -time.Minute)}))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		rc := registered("user_1", time.Minute)
		rc.Issuer = "https://evil.example.com"
		_, err := v.Verify(signHS(t, &SessionClaims{RegisteredClaims: rc}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := v.Verify(signHS(t, &SessionClaims{RegisteredClaims: registered("", time.Minute)}))
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := v.Verify("  ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token := signHS(t, &SessionClaims{RegisteredClaims: registered("user_1", time.Minute)})
		_, err := v.Verify(token[:len(token)-2] + "xx")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSessionVerifier_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewSessionVerifier(config.AuthConfig{Algorithm: "RS256", PublicKeyPEM: pemKey})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, &SessionClaims{
		RegisteredClaims: registered("user_9", time.Minute),
	}).SignedString(key)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_9", claims.Subject)

	t.Run("hs256 token is refused", func(t *testing.T) {
		_, err := v.Verify(signHS(t, &SessionClaims{RegisteredClaims: registered("user_9", time.Minute)}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewSessionVerifier_Config(t *testing.T) {
	_, err := NewSessionVerifier(config.AuthConfig{Algorithm: "HS256"})
	assert.Error(t, err)
	_, err = NewSessionVerifier(config.AuthConfig{Algorithm: "RS256", PublicKeyPEM: "garbage"})
	assert.Error(t, err)
	_, err = NewSessionVerifier(config.AuthConfig{Algorithm: "ES512"})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}
