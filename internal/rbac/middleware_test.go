package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stitchbook/stitchbook/internal/shared"
)

func testMiddleware() Middleware {
	users := map[int64]shared.Actor{
		1: {ID: 1, Username: "owner", Role: shared.RoleAdmin},
		2: {ID: 2, Username: "tailor", Role: shared.RoleStaff},
		3: {ID: 3, Username: "accounts", Role: shared.RoleManager},
	}
	lookup := ActorLookupFunc(func(ctx context.Context, id int64) (shared.Actor, error) {
		actor, ok := users[id]
		if !ok {
			return shared.Actor{}, shared.ErrNotFound
		}
		return actor, nil
	})
	return Middleware{Service: NewService(lookup)}
}

func requestAs(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sessions := shared.NewSessionManager(nil, "sid", time.Hour, false)
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	mw := testMiddleware()
	var seen shared.Actor
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	require.Equal(t, http.StatusUnauthorized, serve(h, requestAs(t, "")).Code)
	require.Equal(t, http.StatusUnauthorized, serve(h, requestAs(t, "99")).Code)

	rec := serve(h, requestAs(t, "2"))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "tailor", seen.Username)
}

func TestRequireAnyByRole(t *testing.T) {
	mw := testMiddleware()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		perm string
		user string
		want int
	}{
		{shared.PermOrdersCreate, "2", http.StatusOK},
		{shared.PermPaymentsRecord, "2", http.StatusOK},
		{shared.PermBalancesView, "2", http.StatusForbidden},
		{shared.PermReportsView, "3", http.StatusOK},
		{shared.PermBalancesEdit, "3", http.StatusForbidden},
		{shared.PermOrdersDelete, "3", http.StatusForbidden},
		{shared.PermBalancesEdit, "1", http.StatusOK},
		{shared.PermUsersManage, "1", http.StatusOK},
		{shared.PermOrdersView, "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := serve(mw.RequireAny(tc.perm)(ok), requestAs(t, tc.user))
		require.Equalf(t, tc.want, rec.Code, "perm %s user %q", tc.perm, tc.user)
	}
}

func TestRequireAll(t *testing.T) {
	mw := testMiddleware()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	h := mw.RequireAll(shared.PermOrdersView, shared.PermReportsView)(ok)
	require.Equal(t, http.StatusForbidden, serve(h, requestAs(t, "2")).Code)
	require.Equal(t, http.StatusOK, serve(h, requestAs(t, "3")).Code)
}

func TestListRoles(t *testing.T) {
	roles := testMiddleware().Service.ListRoles()
	require.Len(t, roles, 3)
	require.Equal(t, shared.RoleAdmin, roles[0].Name)
	require.Contains(t, roles[0].Permissions, shared.PermUsersManage)
	require.NotContains(t, roles[2].Permissions, shared.PermBalancesView)
}
