package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenNotValid  = errors.New("token not valid for this service")
)

// clockSkew is tolerated on nbf/exp so a gateway and an identity provider
// with slightly drifted clocks do not bounce fresh tokens.
const clockSkew = 30 * time.Second

// JWTManager issues and validates HS256 tokens. The header segment never
// changes, so it is encoded once at construction.
type JWTManager struct {
	signingKey    []byte
	issuer        string
	audience      string
	ttl           time.Duration
	headerSegment string
	nowFunc       func() time.Time
}

func NewJWTManager(secret, issuer, audience string, ttl time.Duration) (*JWTManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	header, err := encodeSegment(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return nil, err
	}
	return &JWTManager{
		signingKey:    []byte(secret),
		issuer:        issuer,
		audience:      audience,
		ttl:           ttl,
		headerSegment: header,
		nowFunc:       time.Now,
	}, nil
}

type Claims struct {
	ID             string    `json:"jti"`
	Issuer         string    `json:"iss"`
	Subject        string    `json:"sub"`
	Audience       string    `json:"aud"`
	IssuedAt       int64     `json:"iat"`
	NotBefore      int64     `json:"nbf"`
	ExpiresAt      int64     `json:"exp"`
	UserID         uuid.UUID `json:"uid"`
	OrganizationID uuid.UUID `json:"oid"`
	Role           string    `json:"role"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
}

func (m *JWTManager) IssueToken(user models.User) (string, error) {
	now := m.nowFunc()
	claims := Claims{
		ID:             uuid.NewString(),
		Issuer:         m.issuer,
		Subject:        user.ID.String(),
		Audience:       m.audience,
		IssuedAt:       now.Unix(),
		NotBefore:      now.Unix(),
		ExpiresAt:      now.Add(m.ttl).Unix(),
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
		Email:          user.Email,
		Name:           user.Name,
	}

	payloadSegment, err := encodeSegment(claims)
	if err != nil {
		return "", fmt.Errorf("failed to encode claims: %w", err)
	}

	signature := signSegments(m.signingKey, m.headerSegment, payloadSegment)
	return m.headerSegment + "." + payloadSegment + "." + signature, nil
}

func (m *JWTManager) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, ErrTokenMalformed
	}

	expectedSig := signSegments(m.signingKey, parts[0], parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, ErrTokenSignature
	}

	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return nil, ErrTokenMalformed
	}

	if claims.Issuer != m.issuer || claims.Audience != m.audience {
		return nil, ErrTokenNotValid
	}

	now := m.nowFunc()
	if now.Add(clockSkew).Unix() < claims.NotBefore {
		return nil, ErrTokenNotValid
	}
	if now.Add(-clockSkew).Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}

func encodeSegment(v interface{}) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func decodeSegment(segment string, dst interface{}) error {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func signSegments(secret []byte, header, payload string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(header + "." + payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
