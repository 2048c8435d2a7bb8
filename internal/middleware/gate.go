package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/config"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/utils"
)

// Gate verifies bearer tokens and enforces the admin and ownership rules.
// Every role decision reads the stored user; nothing is cached.
type Gate struct {
	cfg   *config.JWTConfig
	users store.Collection
	log   *zap.Logger
}

// NewGate creates a Gate that resolves roles from st's users collection
func NewGate(cfg *config.JWTConfig, st store.Store, log *zap.Logger) *Gate {
	return &Gate{cfg: cfg, users: st.Collection(store.CollectionUsers), log: log}
}

// Authenticate rejects requests without a valid bearer token with 401
func (g *Gate) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return AuthMiddleware(next, g.cfg)
}

// Admin chains Authenticate and RequireAdmin
func (g *Gate) Admin(next http.HandlerFunc) http.HandlerFunc {
	return g.Authenticate(g.RequireAdmin(next))
}

// RequireAdmin answers 403 unless the caller's stored role is admin
func (g *Gate) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := EmailFromContext(r.Context())
		if email == "" {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "unauthorized access")
			return
		}
		admin, err := g.IsAdmin(r.Context(), email)
		if err != nil {
			g.log.Error("admin lookup failed", zap.String("email", email), zap.Error(err))
			utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal Server Error", "failed to verify role")
			return
		}
		if !admin {
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "forbidden access")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// SelfOnly answers 403 unless the path value named param equals the
// caller's own email. Admin status does not bypass it.
func (g *Gate) SelfOnly(param string, next http.HandlerFunc) http.HandlerFunc {
	return g.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue(param) != EmailFromContext(r.Context()) {
			utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "forbidden access")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsAdmin reports whether the stored user with email has the admin role.
// A missing user is not an admin.
func (g *Gate) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := g.users.FindOne(ctx, store.Document{"email": email})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.String("role") == models.RoleAdmin, nil
}

// OwnerOrAdmin is the ownership rule for per-user resources: the caller
// owns it, or the caller is an admin.
func (g *Gate) OwnerOrAdmin(ctx context.Context, owner string) (bool, error) {
	email := EmailFromContext(ctx)
	if email == "" {
		return false, nil
	}
	if owner != "" && owner == email {
		return true, nil
	}
	return g.IsAdmin(ctx, email)
}
