package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller's privilege level carried in the bearer token.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// AtLeast reports whether r carries at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Claims are the JWT claims this service understands.
type Claims struct {
	UserID string `json:"uid"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

const claimsKey contextKey = "authClaims"

// AuthMiddleware validates the Bearer token and stores the claims on the
// request context. Requests without a valid token are rejected.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			cl, ok := tok.Claims.(*Claims)
			if !ok || cl.UserID == "" {
				WriteError(w, http.StatusUnauthorized, "invalid claims")
				return
			}
			if cl.Role == "" {
				cl.Role = RoleUser
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, cl)))
		})
	}
}

// RequireRole gates a handler behind a minimum privilege level.
func RequireRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cl := CallerClaims(r)
			if cl == nil || !cl.Role.AtLeast(min) {
				WriteForbidden(w, "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerClaims returns the authenticated caller's claims, or nil.
func CallerClaims(r *http.Request) *Claims {
	cl, _ := r.Context().Value(claimsKey).(*Claims)
	return cl
}
