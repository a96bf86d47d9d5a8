package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/tableviz/pkg/response"
)

// SubjectKey is the gin context key holding the authenticated subject
const SubjectKey = "subject"

// ErrMissingToken is returned when a request carries no bearer token
var ErrMissingToken = errors.New("missing bearer token")

// TokenAuth verifies HS256 bearer tokens
type TokenAuth struct {
	secret []byte
	issuer string
}

// NewTokenAuth creates a verifier for tokens signed with secret by issuer
func NewTokenAuth(secret, issuer string) *TokenAuth {
	return &TokenAuth{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for subject valid for ttl
func (a *TokenAuth) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its subject
func (a *TokenAuth) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return claims.Subject, nil
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Auth middleware rejects requests without a valid bearer token
func Auth(a *TokenAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		subject, err := a.Verify(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(SubjectKey, subject)
		c.Next()
	}
}
