package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents JWT claims carrying the authenticated subject.
type Claims struct {
	Subject uuid.UUID `json:"subject"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 tokens for the HTTP layer.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService creates a JWT service. Expiry must be positive.
func NewJWTService(secret string, expiry time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret cannot be empty")
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive, got %s", expiry)
	}
	return &JWTService{secret: []byte(secret), expiry: expiry}, nil
}

// GenerateToken generates a signed token for the given subject.
func (s *JWTService) GenerateToken(subject uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a token string and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Subject == uuid.Nil {
		return nil, fmt.Errorf("token carries no subject")
	}
	return claims, nil
}

// ProviderForToken validates tokenString and returns a Provider bound to its
// subject, or an anonymous provider when the token is absent or invalid.
func (s *JWTService) ProviderForToken(tokenString string) Provider {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return NewAnonymous()
	}
	return NewStaticProvider(claims.Subject)
}
