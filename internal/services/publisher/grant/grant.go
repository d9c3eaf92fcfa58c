// Package grant signs and verifies the ed25519 tokens attached to webhook
// submissions so the receiving site can prove a publish came from us.
package grant

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
)

// signerEnv holds raw env values before post-parse validation.
type signerEnv struct {
	Issuer     string        `env:"INKHORN_PUBLISH_GRANT_ISSUER"`
	Audience   string        `env:"INKHORN_PUBLISH_GRANT_AUDIENCE"`
	PrivateKey string        `env:"INKHORN_PUBLISH_GRANT_PRIVATE_KEY"`
	TTL        time.Duration `env:"INKHORN_PUBLISH_GRANT_TTL"         envDefault:"5m"`
}

// Signer issues publish grants for outgoing submissions.
type Signer struct {
	issuer   string
	audience string
	key      ed25519.PrivateKey
	ttl      time.Duration
	now      func() time.Time
}

// LoadSignerFromEnv reads publish grant signing configuration.
func LoadSignerFromEnv(now func() time.Time) (*Signer, error) {
	var raw signerEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse publish grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return nil, fmt.Errorf("INKHORN_PUBLISH_GRANT_ISSUER is required")
	}
	if audience == "" {
		return nil, fmt.Errorf("INKHORN_PUBLISH_GRANT_AUDIENCE is required")
	}
	if privateKey == "" {
		return nil, fmt.Errorf("INKHORN_PUBLISH_GRANT_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return nil, fmt.Errorf("decode publish grant private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("publish grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if raw.TTL <= 0 {
		return nil, fmt.Errorf("publish grant ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{
		issuer:   issuer,
		audience: audience,
		key:      ed25519.PrivateKey(keyBytes),
		ttl:      raw.TTL,
		now:      now,
	}, nil
}

// NewSigner builds a signer from explicit values, for tests and tools.
func NewSigner(issuer, audience string, key ed25519.PrivateKey, ttl time.Duration, now func() time.Time) (*Signer, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("publish grant private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if ttl <= 0 {
		return nil, errors.New("publish grant ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{issuer: issuer, audience: audience, key: key, ttl: ttl, now: now}, nil
}

// postClaims is the internal claims type used for JWT encoding.
type postClaims struct {
	jwt.RegisteredClaims
	ProjectID string `json:"project_id"`
	PostID    string `json:"post_id"`
}

// Sign issues a short-lived grant naming the post being submitted.
func (s *Signer) Sign(projectID, postID string) (string, error) {
	jwtID, err := id.NewID()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, postClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        jwtID,
		},
		ProjectID: projectID,
		PostID:    postID,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign publish grant: %w", err)
	}
	return signed, nil
}

// VerifierConfig defines how publish grants are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Claims captures validated publish grant claims.
type Claims struct {
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	JWTID     string
	ProjectID string
	PostID    string
}

// Validate verifies a publish grant token and its post identity.
func Validate(token string, projectID, postID string, cfg VerifierConfig) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Claims{}, errors.New("publish grant verifier is not configured")
	}

	var parsed postClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant audience mismatch")
	}
	if parsed.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant jti is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant exp is required")
	}
	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant not active yet")
	}
	if strings.TrimSpace(parsed.ProjectID) == "" || parsed.ProjectID != projectID {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant project mismatch")
	}
	if strings.TrimSpace(parsed.PostID) == "" || parsed.PostID != postID {
		return Claims{}, apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant post mismatch")
	}

	return Claims{
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
		JWTID:     parsed.ID,
		ProjectID: parsed.ProjectID,
		PostID:    parsed.PostID,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant alg is invalid")
	}
	return apperrors.New(apperrors.CodePublishGrantInvalid, "publish grant is invalid")
}

// audienceContains reports whether the audience list contains the value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
