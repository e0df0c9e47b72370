package internal

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "lexipulse-api"

type JWTManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

type Claims struct {
	ClientID string `json:"client_id"`
	Ticker   string `json:"ticker"`
	jwt.RegisteredClaims
}

// NewJWTManager signs tokens with secretKey that stay valid for ttl.
func NewJWTManager(secretKey string, ttl time.Duration) (*JWTManager, error) {
	if secretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY not set")
	}
	return &JWTManager{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}, nil
}

// CheckSecret compares a client supplied secret with the signing key in
// constant time.
func (jm *JWTManager) CheckSecret(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), jm.secretKey) == 1
}

func (jm *JWTManager) GenerateToken(clientID, ticker string) (string, time.Time, error) {
	now := jm.now()
	expiresAt := now.Add(jm.ttl)
	claims := &Claims{
		ClientID: clientID,
		Ticker:   ticker,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jm.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func (jm *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jm.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(jm.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
