package application_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"internship-service/internal/application"
	"internship-service/internal/identity"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth reads the principal from X-Test-User as "id:role".
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, role, ok := strings.Cut(r.Header.Get("X-Test-User"), ":")
		if !ok {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		p := identity.Principal{Role: identity.Role(role)}
		p.UserID, _ = strconv.Atoi(id)
		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(r.Context(), p)))
	})
}

func as(p identity.Principal) string {
	return strconv.Itoa(p.UserID) + ":" + string(p.Role)
}

func setupRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := application.NewHandler(f.svc, fakeAuth, slog.New(slog.DiscardHandler))

	router := chi.NewRouter()
	router.Route("/internships", h.RegisterApplyRoute)
	router.Group(func(r chi.Router) {
		r.Use(fakeAuth)
		h.RegisterRoutes(r)
	})
	return router, f
}

func multipartBody(t *testing.T, filename string, content []byte, coverLetter string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("coverLetter", coverLetter))
	if filename != "" {
		part, err := mw.CreateFormFile("resume", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, router http.Handler, path, user, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, "Keen to learn")
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
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

func decodeApplication(t *testing.T, w *httptest.ResponseRecorder) application.Application {
	t.Helper()
	var resp struct {
		Success bool                    `json:"success"`
		Data    application.Application `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	return resp.Data
}

func TestHandler_Apply(t *testing.T) {
	router, _ := setupRouter(t)
	path := "/internships/" + strconv.Itoa(backendID) + "/apply"

	tests := []struct {
		name           string
		path           string
		user           string
		filename       string
		content        []byte
		expectedStatus int
	}{
		{"anonymous", path, "", "cv.pdf", pdfBytes, http.StatusUnauthorized},
		{"mentor", path, as(ravi), "cv.pdf", pdfBytes, http.StatusForbidden},
		{"missing resume", path, as(asha), "", nil, http.StatusBadRequest},
		{"wrong type", path, as(asha), "cv.png", pdfBytes, http.StatusBadRequest},
		{"unknown posting", "/internships/999/apply", as(asha), "cv.pdf", pdfBytes, http.StatusNotFound},
		{"bad id", "/internships/abc/apply", as(asha), "cv.pdf", pdfBytes, http.StatusBadRequest},
		{"success", path, as(asha), "cv.pdf", pdfBytes, http.StatusOK},
		{"duplicate", path, as(asha), "cv.pdf", pdfBytes, http.StatusConflict},
		{"duplicate without resume", path, as(asha), "", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, router, tt.path, tt.user, tt.filename, tt.content)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}
}

func TestHandler_ApplyResponse(t *testing.T) {
	router, _ := setupRouter(t)

	w := upload(t, router, "/internships/"+strconv.Itoa(backendID)+"/apply", as(asha), "cv.pdf", pdfBytes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	a := decodeApplication(t, w)
	assert.Equal(t, application.StatusSubmitted, a.Status)
	assert.Equal(t, "Keen to learn", a.CoverLetter)
	assert.Equal(t, asha.UserID, a.UserID)
}

func TestHandler_StatusWorkflow(t *testing.T) {
	router, f := setupRouter(t)
	a := f.apply(t, asha)
	base := "/applications/" + strconv.Itoa(a.ID)

	tests := []struct {
		name           string
		user           string
		status         string
		expectedStatus int
	}{
		{"other mentor", as(priya), "Under Review", http.StatusForbidden},
		{"skip ahead", as(ravi), "Shortlisted", http.StatusBadRequest},
		{"unknown status", as(ravi), "Maybe", http.StatusBadRequest},
		{"review", as(ravi), "under_review", http.StatusOK},
		{"shortlist", as(ravi), "Shortlisted", http.StatusOK},
		{"applicant cannot hire", as(asha), "Hired", http.StatusForbidden},
		{"hire", as(ravi), "Hired", http.StatusOK},
		{"reopen", as(ravi), "Under Review", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(t, router, http.MethodPatch, base+"/status", tt.user, map[string]string{"status": tt.status})
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
		})
	}

	w := send(t, router, http.MethodGet, base, as(asha), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, application.StatusHired, decodeApplication(t, w).Status)

	w = send(t, router, http.MethodPatch, base+"/status", as(ravi), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodPatch, "/applications/999/status", as(ravi), map[string]string{"status": "Hired"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_List(t *testing.T) {
	router, f := setupRouter(t)
	f.apply(t, asha)
	f.apply(t, kiran)

	var resp struct {
		Success bool                      `json:"success"`
		Count   int                       `json:"count"`
		Total   int                       `json:"total"`
		Page    int                       `json:"page"`
		Pages   int                       `json:"pages"`
		Data    []application.Application `json:"data"`
	}

	w := send(t, router, http.MethodGet, "/applications", as(asha), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, asha.UserID, resp.Data[0].UserID)

	w = send(t, router, http.MethodGet, "/applications?limit=1&page=2", as(ravi), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 2, resp.Pages)

	w = send(t, router, http.MethodGet, "/applications?status=pending", as(admin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)

	w = send(t, router, http.MethodGet, "/applications?status=nope", as(admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodGet, "/applications?internshipId=x", as(admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodGet, "/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_AssignMentor(t *testing.T) {
	router, f := setupRouter(t)
	a := f.apply(t, asha)
	path := "/applications/" + strconv.Itoa(a.ID) + "/mentor"

	w := send(t, router, http.MethodPatch, path, as(ravi), map[string]int{"mentorId": priya.UserID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(t, router, http.MethodPatch, path, as(admin), map[string]int{"mentorId": kiran.UserID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodPatch, path, as(admin), map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, router, http.MethodPatch, path, as(admin), map[string]int{"mentorId": priya.UserID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, priya.UserID, *decodeApplication(t, w).MentorID)
}

func TestHandler_DownloadResume(t *testing.T) {
	router, f := setupRouter(t)
	a := f.apply(t, asha)
	path := "/applications/" + strconv.Itoa(a.ID) + "/resume"

	w := send(t, router, http.MethodGet, path, as(ravi), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfBytes, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="resume.pdf"`)

	w = send(t, router, http.MethodGet, path, as(kiran), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_SuspendedCaller(t *testing.T) {
	router, f := setupRouter(t)
	f.apply(t, asha)

	suspended := identity.Principal{UserID: asha.UserID, Role: identity.RoleSuspended}
	w := send(t, router, http.MethodGet, "/applications", as(suspended), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
