package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"projector/models"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const principalKey contextKey = "principal"

// Claims are the bearer token claims issued by the authentication system
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	IsManager bool   `json:"is_manager"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the principal
func IssueToken(secret []byte, p models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    p.UserID,
		Username:  p.Username,
		IsManager: p.IsManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parseToken verifies the signature and expiry of a bearer token
func parseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token and stores the caller's principal
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, tokenStr, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
				writeMessage(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parseToken(secret, tokenStr)
			if err != nil {
				loggerFrom(r).WithError(err).Debug("Rejected bearer token")
				writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			principal := models.Principal{
				UserID:    claims.UserID,
				Username:  claims.Username,
				IsManager: claims.IsManager,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, principal)))
		})
	}
}

// RequireManager rejects callers without manager rights
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok || !principal.IsManager {
			writeMessage(w, http.StatusForbidden, "manager role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFrom returns the authenticated caller stored by Authenticate
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(models.Principal)
	return principal, ok
}
