package rbac

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/stitchbook/stitchbook/internal/platform/httpx"
	"github.com/stitchbook/stitchbook/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAuth rejects requests without a live user and stores the actor in
// the request context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.resolve(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require("rbac require any", hasAnyPermission, perms)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require("rbac require all", hasAllPermissions, perms)
}

func (m Middleware) require(name string, check func(granted, required []string) bool, perms []string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := m.resolve(w, r)
			if !ok {
				return
			}
			if check(shared.RolePermissions(actor.Role), normalized) {
				next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
				return
			}
			if m.Logger != nil {
				m.Logger.Debug(name+" denied",
					slog.String("user", actor.Username),
					slog.String("role", actor.Role),
					slog.Any("required", normalized))
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}

// resolve finds the actor for the request, writing the error response itself
// when there is none.
func (m Middleware) resolve(w http.ResponseWriter, r *http.Request) (shared.Actor, bool) {
	if actor, ok := shared.ActorFromContext(r.Context()); ok {
		return actor, true
	}
	userID, ok := m.currentUserID(r)
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return shared.Actor{}, false
	}
	actor, err := m.Service.Actor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return shared.Actor{}, false
		}
		if m.Logger != nil {
			m.Logger.Error("rbac resolve actor", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return shared.Actor{}, false
	}
	return actor, true
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[strings.ToLower(p)] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
