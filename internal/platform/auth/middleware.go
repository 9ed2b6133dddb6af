// Package auth guards the scoring API. A deployment may configure a static
// API key, an HS256 signing secret for bearer tokens, both, or neither; with
// neither the guard is off.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const SubjectKey contextKey = "auth_subject"

// Issuer is stamped into and required on every bearer token.
const Issuer = "hepacheck"

type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

type Config struct {
	APIKey     string
	SigningKey []byte
}

func (c Config) enabled() bool {
	return c.APIKey != "" || len(c.SigningKey) > 0
}

// Middleware accepts a request carrying the configured X-API-Key, or a valid
// bearer token when a signing key is configured. Anything else is 401.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !cfg.enabled() {
			return next
		}
		return func(c echo.Context) error {
			if key := extractAPIKey(c); key != "" && cfg.APIKey != "" {
				if !apiKeyMatches(cfg.APIKey, key) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
				}
				return next(c)
			}

			if token, ok := extractBearer(c); ok && len(cfg.SigningKey) > 0 {
				claims, err := ParseToken(cfg.SigningKey, token)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				c.Set(string(SubjectKey), claims.Subject)
				ctx := context.WithValue(c.Request().Context(), SubjectKey, claims.Subject)
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}

			if cfg.APIKey != "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
		}
	}
}

// ParseToken validates an HS256 token issued by IssueToken.
func ParseToken(signingKey []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// IssueToken mints a bearer token for subject valid for ttl.
func IssueToken(signingKey []byte, subject string, ttl time.Duration) (string, error) {
	if len(signingKey) == 0 {
		return "", fmt.Errorf("signing key is required")
	}
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: "scores",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)
	return sub
}
