// Package auth issues and verifies the bearer tokens used by the API and
// hashes user passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Token types carried in the "type" claim.
const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the JWT payload. Refresh tokens only carry UserID.
type Claims struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	Role      string `json:"role,omitempty"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// Identity is the user data embedded in an access token.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// TokenPair is returned on signup and signin.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager returns a manager for secret. An empty secret is rejected.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required but was empty")
	}
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// Issue creates an access and a refresh token for id.
func (m *JWTManager) Issue(id Identity) (*TokenPair, error) {
	access, err := m.sign(Claims{
		UserID:    id.UserID,
		UserName:  id.Name,
		UserEmail: id.Email,
		Role:      id.Role,
		Type:      AccessToken,
	}, m.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(Claims{UserID: id.UserID, Type: RefreshToken}, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Refresh exchanges a valid refresh token for a new access token. lookup
// resolves the token's user so the new access token carries current
// name, email, and role.
func (m *JWTManager) Refresh(refreshToken string, lookup func(userID string) (Identity, error)) (string, error) {
	claims, err := m.Verify(refreshToken, RefreshToken)
	if err != nil {
		return "", err
	}
	id, err := lookup(claims.UserID)
	if err != nil {
		return "", err
	}
	return m.sign(Claims{
		UserID:    id.UserID,
		UserName:  id.Name,
		UserEmail: id.Email,
		Role:      id.Role,
		Type:      AccessToken,
	}, m.accessTTL)
}

// Verify parses tokenString and checks signature, expiry, and token type.
func (m *JWTManager) Verify(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Type != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, tokenType)
	}
	return claims, nil
}

func (m *JWTManager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
