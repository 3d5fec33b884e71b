package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
)

const (
	RoleProvider = "PROVIDER"
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

var errMissingToken = errors.New("missing token")

// Claims is the token payload issued by the marketplace auth service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Subject string
	Role    string
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller attached by Authenticator.Authenticate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Mint signs a token for subject. Production tokens come from the auth
// service; this is used by seeding and tests.
func (a *Authenticator) Mint(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) ParseFromRequest(r *http.Request) (*Claims, error) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errMissingToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *Authenticator) parse(tok string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Authenticate rejects requests without a valid token and attaches the
// caller identity to the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.ParseFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		id := Identity{Subject: claims.Subject, Role: strings.ToUpper(claims.Role)}
		ctx := withIdentity(r.Context(), id)
		ctx = logging.WithProviderID(ctx, id.Subject)
		ctx = logging.WithRole(ctx, id.Role)
		reportContext(w, ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets through callers whose role is one of roles.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
			if !slices.Contains(roles, id.Role) {
				writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
