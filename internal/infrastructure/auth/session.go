// Package auth verifies identity-provider session tokens and maps their
// claims onto an identity.Actor.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/config"
)

var (
	ErrMissingToken   = errors.New("missing session token")
	ErrInvalidToken   = errors.New("invalid session token")
	ErrExpiredToken   = errors.New("session token has expired")
	ErrMissingSubject = errors.New("session token has no subject")
)

// PublicMetadata mirrors the provider's user public metadata embedded in the token
type PublicMetadata struct {
	Role string `json:"role,omitempty"`
}

// OrgClaims is the compact organization claim of newer session tokens
type OrgClaims struct {
	ID   string `json:"id,omitempty"`
	Role string `json:"rol,omitempty"`
}

// SessionClaims are the claims the provider puts in a session token
type SessionClaims struct {
	jwt.RegisteredClaims
	OrgID          string          `json:"org_id,omitempty"`
	OrgRole        string          `json:"org_role,omitempty"`
	Org            *OrgClaims      `json:"o,omitempty"`
	PublicMetadata *PublicMetadata `json:"publicMetadata,omitempty"`
	Metadata       *PublicMetadata `json:"metadata,omitempty"`
}

// Actor resolves the caller from the claims
func (c *SessionClaims) Actor() identity.Actor {
	a := identity.Actor{UserID: c.Subject, OrgID: c.OrgID, OrgRole: identity.Role(c.OrgRole)}
	if c.Org != nil && a.OrgID == "" {
		a.OrgID = c.Org.ID
		if c.Org.Role != "" {
			a.OrgRole = identity.Role(withOrgPrefix(c.Org.Role))
		}
	}
	switch {
	case c.PublicMetadata != nil && c.PublicMetadata.Role != "":
		a.PersonalRole = identity.Role(c.PublicMetadata.Role)
	case c.Metadata != nil && c.Metadata.Role != "":
		a.PersonalRole = identity.Role(c.Metadata.Role)
	}
	return a
}

func withOrgPrefix(role string) string {
	if strings.HasPrefix(role, "org:") {
		return role
	}
	return "org:" + role
}

// SessionVerifier validates session tokens with either a shared secret
// (HS256) or the provider's public key (RS256).
type SessionVerifier struct {
	method jwt.SigningMethod
	key    any
	parser *jwt.Parser
}

// NewSessionVerifier builds a verifier from configuration
func NewSessionVerifier(cfg config.AuthConfig) (*SessionVerifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	v := &SessionVerifier{}
	switch strings.ToUpper(cfg.Algorithm) {
	case "HS256":
		if cfg.Secret == "" {
			return nil, errors.New("auth secret is required for HS256")
		}
		v.method, v.key = jwt.SigningMethodHS256, []byte(cfg.Secret)
	case "RS256", "":
		key, err := parsePublicKey(cfg.PublicKeyPEM)
		if err != nil {
			return nil, err
		}
		v.method, v.key = jwt.SigningMethodRS256, key
	default:
		return nil, fmt.Errorf("unsupported auth algorithm %q", cfg.Algorithm)
	}
	v.parser = jwt.NewParser(append(opts, jwt.WithValidMethods([]string{v.method.Alg()}))...)
	return v, nil
}

func parsePublicKey(pemData string) (*rsa.PublicKey, error) {
	if strings.TrimSpace(pemData) == "" {
		return nil, errors.New("auth public key is required for RS256")
	}
	// Keys from environment variables often carry literal \n sequences
	pemData = strings.ReplaceAll(pemData, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, fmt.Errorf("invalid auth public key: %w", err)
	}
	return key, nil
}

// Verify parses and validates a raw token
func (v *SessionVerifier) Verify(raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &SessionClaims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// VerifyActor verifies raw and returns the resolved actor
func (v *SessionVerifier) VerifyActor(raw string) (identity.Actor, error) {
	claims, err := v.Verify(raw)
	if err != nil {
		return identity.Actor{}, err
	}
	return claims.Actor(), nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
