package handler

import (
	"Attestor/internal/api/dto"
	"Attestor/internal/pkg/mongo"
	"Attestor/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmissionService struct {
	got  any
	resp *dto.SubmitResponse
	err  error
}

func (f *fakeSubmissionService) Submit(_ context.Context, body any) (*dto.SubmitResponse, error) {
	f.got = body
	return f.resp, f.err
}

func (f *fakeSubmissionService) Reverify(context.Context, *mongo.MediaSubmission) (bool, error) {
	return false, nil
}

func setupRouter(svc service.SubmissionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", NewSubmissionHandler(svc).Submit)
	r.GET("/health", NewHealthHandler().Health)
	return r
}

func doPost(r *gin.Engine, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmit_Success(t *testing.T) {
	txID := "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	svc := &fakeSubmissionService{resp: &dto.SubmitResponse{Status: "verified", AlreadyExists: false, TxID: &txID}}

	w := doPost(setupRouter(svc), "application/json", `{"videoHash":"ab","metadata":{"n":1}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"verified","alreadyExists":false,"txId":"`+txID+`"}`, w.Body.String())

	body, ok := svc.got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ab", body["videoHash"])
	assert.Equal(t, float64(1), body["metadata"].(map[string]any)["n"])
}

func TestSubmit_NullTxID(t *testing.T) {
	svc := &fakeSubmissionService{resp: &dto.SubmitResponse{Status: "verified"}}

	w := doPost(setupRouter(svc), "application/json", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"verified","alreadyExists":false,"txId":null}`, w.Body.String())
}

func TestSubmit_InvalidJSON(t *testing.T) {
	for _, body := range []string{`{"videoHash":`, `"just a string"`, `42`} {
		svc := &fakeSubmissionService{}
		w := doPost(setupRouter(svc), "application/json", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid JSON body"}`, w.Body.String())
		assert.Nil(t, svc.got)
	}
}

func TestSubmit_EmptyOrNonJSONBody(t *testing.T) {
	cases := []struct{ contentType, body string }{
		{"application/json", ""},
		{"text/plain", `{"videoHash":"ab"}`},
		{"", `{"videoHash":"ab"}`},
	}
	for _, tc := range cases {
		svc := &fakeSubmissionService{err: service.ErrVideoHashRequired}
		w := doPost(setupRouter(svc), tc.contentType, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"videoHash is required and must be a string"}`, w.Body.String())
		assert.Equal(t, map[string]any{}, svc.got)
	}
}

func TestSubmit_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrSignatureInvalid, http.StatusUnauthorized},
		{service.ErrAnchorVerifyFailed, http.StatusConflict},
		{service.ErrAnchorFailed, http.StatusBadGateway},
		{service.ErrAnchorVerifyUnhealthy, http.StatusBadGateway},
		{service.ErrDatabase, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := doPost(setupRouter(&fakeSubmissionService{err: tt.err}), "application/json", `{}`)
		assert.Equal(t, tt.status, w.Code)
		assert.JSONEq(t, `{"error":"`+tt.err.Error()+`"}`, w.Body.String())
	}
}

func TestSubmit_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 8)
		c.Next()
	}, NewSubmissionHandler(&fakeSubmissionService{}).Submit)

	w := doPost(r, "application/json", `{"videoHash":"0123456789"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"Request body too large"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	setupRouter(&fakeSubmissionService{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
