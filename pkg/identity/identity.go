// Package identity resolves the caller of an HTTP request from a bearer token.
// Tokens are issued elsewhere; this package only verifies them and carries
// the subject through the request context.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/pdf-lab/pkg/handlers"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrInvalidToken   = errors.New("invalid token")
)

// Claims are the JWT claims accepted by the verifier.
type Claims struct {
	jwt.RegisteredClaims
}

type ctxKey struct{}

// WithOwner returns a context carrying the given owner id.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// FromContext returns the authenticated owner id, or nil for anonymous requests.
func FromContext(ctx context.Context) *string {
	owner, ok := ctx.Value(ctxKey{}).(string)
	if !ok || owner == "" {
		return nil
	}
	return &owner
}

// Verifier validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier from cfg.
func NewVerifier(cfg *Config) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Verify parses the token and returns its subject.
func (v *Verifier) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// Middleware attaches the bearer token's subject to the request context.
// Requests without an Authorization header pass through as anonymous;
// requests with an invalid token are rejected with 401.
func Middleware(cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	verifier := NewVerifier(cfg)
	logger = logger.With("middleware", "identity")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				handlers.RespondErrorKind(w, logger, http.StatusUnauthorized, "Unauthorized", ErrInvalidToken)
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				handlers.RespondErrorKind(w, logger, http.StatusUnauthorized, "Unauthorized", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), subject)))
		})
	}
}
