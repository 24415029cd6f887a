package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onlineexam/exam-service/internal/config"
	"github.com/onlineexam/exam-service/internal/exam"
	"github.com/onlineexam/exam-service/internal/exam/service"
	"github.com/onlineexam/exam-service/internal/models"
	"github.com/onlineexam/exam-service/internal/tokens"
	"github.com/onlineexam/exam-service/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "handler-test-secret-32-bytes-xxxxxxxx"

func init() { gin.SetMode(gin.TestMode) }

type harness struct {
	t *testing.T
	g *gin.Engine
}

func newHarness(t *testing.T, svc service.Service) *harness {
	g := gin.New()
	RegisterExamRoutes(g, svc, middleware.AuthMiddleware(tokens.NewHMACVerifier(secret)))
	return &harness{t: t, g: g}
}

func tokenFor(t *testing.T, sub string) string {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	tok, err := tokens.GenerateAccessToken(cfg, &models.User{Sub: sub}, time.Minute)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(method, path, user, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(h.t, user))
	}
	w := httptest.NewRecorder()
	h.g.ServeHTTP(w, req)
	return w
}

func decodeExam(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

const midterm = `{"title":"Midterm","description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":90}`

func TestExamHandler_Scenario(t *testing.T) {
	h := newHarness(t, service.NewMemoryService())

	// create as A
	w := h.do(http.MethodPost, "/exams", "user-a", midterm)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeExam(t, w)
	id, _ := created["id"].(string)
	require.Len(t, id, 24)
	assert.Equal(t, "Midterm", created["title"])
	assert.Equal(t, "Ch 1-5", created["description"])
	assert.Equal(t, "2024-05-01T09:00:00Z", created["date"])
	assert.Equal(t, float64(90), created["duration"])
	assert.Equal(t, "user-a", created["ownerId"])

	// list as A contains it
	w = h.do(http.MethodGet, "/exams", "user-a", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	// list as B is an empty array, not null
	w = h.do(http.MethodGet, "/exams", "user-b", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// update as B is indistinguishable from a missing record
	upd := `{"title":"Hijacked","description":"x","date":"2024-05-02","duration":10}`
	w = h.do(http.MethodPut, "/exams/"+id, "user-b", upd)
	require.Equal(t, http.StatusNotFound, w.Code)
	foreign := w.Body.String()
	w = h.do(http.MethodPut, "/exams/000000000000000000000001", "user-b", upd)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, foreign, w.Body.String())
	assert.JSONEq(t, `{"error":"Exam not found or unauthorized"}`, foreign)

	// delete as B fails the same way
	w = h.do(http.MethodDelete, "/exams/"+id, "user-b", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// update as A replaces all four fields
	w = h.do(http.MethodPut, "/exams/"+id, "user-a", `{"title":"Final","description":"All chapters","date":"2024-06-01T10:30:00Z","duration":120}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeExam(t, w)
	assert.Equal(t, id, updated["id"])
	assert.Equal(t, "Final", updated["title"])
	assert.Equal(t, "All chapters", updated["description"])
	assert.Equal(t, "2024-06-01T10:30:00Z", updated["date"])
	assert.Equal(t, float64(120), updated["duration"])
	assert.Equal(t, "user-a", updated["ownerId"])

	// delete as A, then again
	w = h.do(http.MethodDelete, "/exams/"+id, "user-a", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	w = h.do(http.MethodDelete, "/exams/"+id, "user-a", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/exams", "user-a", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExamHandler_RequiresAuthentication(t *testing.T) {
	h := newHarness(t, service.NewMemoryService())
	cases := []struct{ method, path, body string }{
		{http.MethodGet, "/exams", ""},
		{http.MethodPost, "/exams", midterm},
		{http.MethodPut, "/exams/000000000000000000000001", midterm},
		{http.MethodDelete, "/exams/000000000000000000000001", ""},
	}
	for _, tc := range cases {
		w := h.do(tc.method, tc.path, "", tc.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}

	req := httptest.NewRequest(http.MethodGet, "/exams", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	h.g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExamHandler_Validation(t *testing.T) {
	h := newHarness(t, service.NewMemoryService())

	missing := []string{
		`{"description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":90}`,
		`{"title":"","description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":90}`,
		`{"title":"   ","description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":90}`,
		`{"title":"Midterm","description":"\t","date":"2024-05-01T09:00:00Z","duration":90}`,
		`{"title":"Midterm","date":"2024-05-01T09:00:00Z","duration":90}`,
		`{"title":"Midterm","description":"Ch 1-5","duration":90}`,
		`{"title":"Midterm","description":"Ch 1-5","date":"2024-05-01T09:00:00Z"}`,
		`{"title":"Midterm","description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":0}`,
		`{}`,
		``,
	}
	for _, body := range missing {
		w := h.do(http.MethodPost, "/exams", "user-a", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String(), body)
	}

	w := h.do(http.MethodPost, "/exams", "user-a", `{"title":"Midterm","description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPost, "/exams", "user-a", `{"title":"Midterm","description":"Ch 1-5","date":"tomorrow","duration":30}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPost, "/exams", "user-a", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())
	// duration must be a JSON number; numeric strings are not coerced
	w = h.do(http.MethodPost, "/exams", "user-a", `{"title":"Midterm","description":"Ch 1-5","date":"2024-05-01T09:00:00Z","duration":"90"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())

	// nothing was stored
	w = h.do(http.MethodGet, "/exams", "user-a", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExamHandler_UpdateValidationLeavesRecordUnchanged(t *testing.T) {
	h := newHarness(t, service.NewMemoryService())
	w := h.do(http.MethodPost, "/exams/", "user-a", midterm)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeExam(t, w)["id"].(string)

	w = h.do(http.MethodPut, "/exams/"+id, "user-a", `{"title":"Only title"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	list := decodeList(t, h.do(http.MethodGet, "/exams/", "user-a", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "Midterm", list[0]["title"])
}

func TestExamHandler_MalformedIDIsNotFound(t *testing.T) {
	h := newHarness(t, service.NewMemoryService())
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPut, "/exams/nope", "user-a", midterm).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/exams/nope", "user-a", "").Code)
}

// brokenService fails every call the way an unreachable store would.
type brokenService struct{}

var errStore = errors.New("mongo: server selection timeout on 10.0.0.7:27017")

func (brokenService) List(context.Context, string) ([]*exam.Exam, error) { return nil, errStore }
func (brokenService) Create(context.Context, string, service.Input) (*exam.Exam, error) {
	return nil, fmt.Errorf("create exam: %w", errStore)
}
func (brokenService) Update(context.Context, string, string, service.Input) (*exam.Exam, error) {
	return nil, errStore
}
func (brokenService) Delete(context.Context, string, string) error { return errStore }

func TestExamHandler_StorageFailureIsGeneric(t *testing.T) {
	h := newHarness(t, brokenService{})
	for _, w := range []*httptest.ResponseRecorder{
		h.do(http.MethodGet, "/exams", "user-a", ""),
		h.do(http.MethodPost, "/exams", "user-a", midterm),
		h.do(http.MethodPut, "/exams/000000000000000000000001", "user-a", midterm),
		h.do(http.MethodDelete, "/exams/000000000000000000000001", "user-a", ""),
	} {
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Server error"}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "10.0.0.7")
	}
}

func TestExamHandler_MissingOwnerWithoutMiddleware(t *testing.T) {
	g := gin.New()
	RegisterExamRoutes(g, service.NewMemoryService())
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exams", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
