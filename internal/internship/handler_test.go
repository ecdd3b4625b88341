package internship_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"internship-service/internal/identity"
	"internship-service/internal/internship"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth reads the principal from X-Test-User as "id:role".
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Test-User")
		if raw == "" {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		var p identity.Principal
		for i := range raw {
			if raw[i] == ':' {
				p.UserID, _ = strconv.Atoi(raw[:i])
				p.Role = identity.Role(raw[i+1:])
				break
			}
		}
		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), p)))
	})
}

func as(p identity.Principal) string {
	return strconv.Itoa(p.UserID) + ":" + string(p.Role)
}

func setupRouter(t *testing.T) (http.Handler, internship.Service) {
	t.Helper()
	svc, _, _ := newTestService(t)
	router := chi.NewRouter()
	internship.NewHandler(svc, fakeAuth, slog.New(slog.DiscardHandler)).RegisterRoutes(router)
	return router, svc
}

func send(t *testing.T, router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateAndGet(t *testing.T) {
	router, _ := setupRouter(t)

	w := send(t, router, http.MethodPost, "/internships", as(ravi), map[string]any{
		"title":       "Backend Intern",
		"company":     "Acme",
		"location":    "Remote",
		"description": "Build APIs",
		"stipend":     "Unpaid",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success bool                  `json:"success"`
		Data    internship.Internship `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, internship.StatusOpen, created.Data.Status)
	assert.True(t, created.Data.Stipend.Unpaid)

	w = send(t, router, http.MethodGet, "/internships/"+strconv.Itoa(created.Data.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isExpired":false`)

	w = send(t, router, http.MethodGet, "/internships/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = send(t, router, http.MethodGet, "/internships/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_WriteAuthorization(t *testing.T) {
	router, svc := setupRouter(t)
	posting, err := svc.Create(t.Context(), ravi, backendIntern())
	require.NoError(t, err)
	path := "/internships/" + strconv.Itoa(posting.ID)

	tests := []struct {
		name           string
		method         string
		path           string
		user           string
		body           any
		expectedStatus int
	}{
		{"create anonymous", http.MethodPost, "/internships", "", backendIntern(), http.StatusUnauthorized},
		{"create as intern", http.MethodPost, "/internships", as(asha), backendIntern(), http.StatusForbidden},
		{"create invalid", http.MethodPost, "/internships", as(ravi), map[string]string{"title": "x"}, http.StatusBadRequest},
		{"update as other mentor", http.MethodPut, path, as(priya), map[string]string{"title": "x"}, http.StatusForbidden},
		{"delete as other mentor", http.MethodDelete, path, as(priya), nil, http.StatusForbidden},
		{"update as owner", http.MethodPut, path, as(ravi), map[string]string{"location": "Pune"}, http.StatusOK},
		{"update bad status", http.MethodPut, path, as(ravi), map[string]string{"status": "Gone"}, http.StatusBadRequest},
		{"delete as admin", http.MethodDelete, path, as(admin), nil, http.StatusOK},
		{"delete again", http.MethodDelete, path, as(admin), nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(t, router, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestHandler_List(t *testing.T) {
	router, svc := setupRouter(t)
	for range 12 {
		_, err := svc.Create(t.Context(), ravi, backendIntern())
		require.NoError(t, err)
	}

	w := send(t, router, http.MethodGet, "/internships?search=BACKEND&page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Count   int                     `json:"count"`
		Total   int                     `json:"total"`
		Page    int                     `json:"page"`
		Pages   int                     `json:"pages"`
		Data    []internship.Internship `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Count)
	assert.Equal(t, 12, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 3, resp.Pages)

	w = send(t, router, http.MethodGet, "/internships?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodGet, "/internships?postedBy=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
