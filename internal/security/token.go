package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"landrent-backend/internal/domain"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// CallerClaims identifies the party behind a request by its address.
type CallerClaims struct {
	Address domain.Address `json:"address"`
	Type    TokenType      `json:"type"`
	Roles   []string       `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateAccessToken(address domain.Address, roles []string) (string, error)
	ValidateToken(tokenString string) (*CallerClaims, error)
}

type tokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, accessExpiry time.Duration) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
		expiry: accessExpiry,
		now:    time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(address domain.Address, roles []string) (string, error) {
	now := m.now()
	claims := CallerClaims{
		Address: address,
		Type:    TokenTypeAccess,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "landrent",
			Audience:  jwt.ClaimStrings{"api-access"},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*CallerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CallerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CallerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	// Subject and address must agree and be well formed.
	if claims.Address == "" {
		claims.Address = domain.Address(claims.Subject)
	}
	addr, err := domain.ParseAddress(claims.Address.String())
	if err != nil || (claims.Subject != "" && claims.Subject != addr.String()) {
		return nil, ErrInvalidToken
	}
	claims.Address = addr
	return claims, nil
}
