package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"internship-service/internal/identity"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want identity.Role
		ok   bool
	}{
		{"intern", identity.RoleIntern, true},
		{" Mentor ", identity.RoleMentor, true},
		{"ADMIN", identity.RoleAdmin, true},
		{"Suspend", identity.RoleSuspended, true},
		{"suspend", identity.RoleSuspended, true},
		{"Suspended", identity.RoleSuspended, true},
		{"owner", "", false},
	}
	for _, tt := range tests {
		got, ok := identity.NormalizeRole(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRequireRoles(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(h http.Handler, p *identity.Principal) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if p != nil {
			req = req.WithContext(identity.WithPrincipal(context.Background(), *p))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	reviewers := identity.RequireRoles(identity.RoleMentor, identity.RoleAdmin)(ok)

	assert.Equal(t, http.StatusUnauthorized, serve(reviewers, nil))
	assert.Equal(t, http.StatusForbidden, serve(reviewers, &identity.Principal{UserID: 1, Role: identity.RoleIntern}))
	assert.Equal(t, http.StatusOK, serve(reviewers, &identity.Principal{UserID: 2, Role: identity.RoleMentor}))
	assert.Equal(t, http.StatusOK, serve(reviewers, &identity.Principal{UserID: 3, Role: identity.RoleAdmin}))

	active := identity.RequireActive(ok)
	assert.Equal(t, http.StatusOK, serve(active, &identity.Principal{UserID: 1, Role: identity.RoleIntern}))
	assert.Equal(t, http.StatusForbidden, serve(active, &identity.Principal{UserID: 4, Role: identity.RoleSuspended}))
}
