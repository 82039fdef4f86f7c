package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/CorrelAid/debtor_submission_uploader/form"
	"github.com/CorrelAid/debtor_submission_uploader/inits"
	"github.com/CorrelAid/debtor_submission_uploader/middleware"
	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/CorrelAid/debtor_submission_uploader/operations"
	"github.com/CorrelAid/debtor_submission_uploader/validators"
	"github.com/CorrelAid/debtor_submission_uploader/widget"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// syncWidget settles every upload before Open returns with a canned result.
type syncWidget struct {
	mu     sync.Mutex
	opened []widget.Config
	files  []widget.File
	result *models.UploadResult
	err    error
}

func (w *syncWidget) Open(_ context.Context, cfg widget.Config, file widget.File, cb widget.Callback) error {
	w.mu.Lock()
	w.opened = append(w.opened, cfg)
	w.files = append(w.files, file)
	w.mu.Unlock()
	cb(w.result, w.err)
	return nil
}

func (w *syncWidget) Close(context.Context) error { return nil }

type testServer struct {
	router *gin.Engine
	widget *syncWidget
}

func newTestServer(t *testing.T, turnstile *validators.Turnstile) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := inits.NewDB()
	require.NoError(t, err)
	store := operations.NewStore(db, time.Hour)

	w := &syncWidget{result: &models.UploadResult{
		Event: models.EventSuccess,
		Info:  models.UploadInfo{SecureURL: "https://cdn/x.pdf", OriginalFilename: "x.pdf"},
	}}
	cfg := widget.DefaultConfig("acct", "preset")
	cfg.MaxFileSize = 16
	service := operations.NewFormService(store, w, cfg, logger)

	opts := RouterOptions{
		Forms:  NewFormHandler(service, turnstile, cfg.MaxFileSize, logger),
		Logger: logger,
	}
	if turnstile.Enabled() {
		opts.TurnstileSiteKey = "site-key"
	}
	router := NewRouter(opts)
	return &testServer{router: router, widget: w}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, id, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/"+id+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) models.Session {
	t.Helper()
	var session models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session), rec.Body.String())
	return session
}

func (s *testServer) createFilled(t *testing.T, fullName, companyName string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/forms", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeSession(t, rec).ID

	rec = s.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/fullName", gin.H{"value": fullName})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/companyName", gin.H{"value": companyName})
	require.Equal(t, http.StatusOK, rec.Code)
	return id
}

func TestUpload_EndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane Doe", "Acme Freight")

	rec := srv.upload(t, id, "x.pdf", []byte("%PDF-1.4"), nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Len(t, srv.widget.opened, 1)
	assert.Equal(t, "Jane Doe", srv.widget.opened[0].Metadata["fullName"])
	assert.Equal(t, "Acme Freight", srv.widget.opened[0].Metadata["companyName"])
	assert.Equal(t, []byte("%PDF-1.4"), srv.widget.files[0].Content)

	rec = srv.do(t, http.MethodGet, "/api/v1/forms/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeSession(t, rec)
	assert.Equal(t, models.FormData{}, session.FormData)
	assert.Empty(t, session.DocumentURL)
	assert.Equal(t, "Form submitted successfully!", session.Status)
}

func TestUpload_RejectedWithoutFields(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane Doe", "")

	rec := srv.upload(t, id, "x.pdf", []byte("%PDF"), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, form.StatusMissingFields, decodeSession(t, rec).Status)
	assert.Empty(t, srv.widget.opened)
}

func TestUpload_OversizedFileIsTruncatedForTheWidget(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane", "Acme")

	rec := srv.upload(t, id, "x.pdf", bytes.Repeat([]byte("a"), 64), nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, srv.widget.files, 1)
	assert.Len(t, srv.widget.files[0].Content, 17)
}

func TestUpload_EmptyFieldsWithoutFile(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "", "")

	rec := srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/upload", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, form.StatusMissingFields, decodeSession(t, rec).Status)
}

func TestUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane", "Acme")

	rec := srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/upload", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_Turnstile(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := newTestServer(t, &validators.Turnstile{Secret: "secret", TestToken: "dev", Logger: logger})
	id := srv.createFilled(t, "Jane", "Acme")

	rec := srv.upload(t, id, "x.pdf", []byte("%PDF"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, srv.widget.opened)

	rec = srv.upload(t, id, "x.pdf", []byte("%PDF"), map[string]string{"cf-turnstile-response": "dev"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWidget_ClientFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, " Jane Doe ", "Acme Freight")

	rec := srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/widget", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var prepared struct {
		AttemptID string         `json:"attemptId"`
		Config    map[string]any `json:"config"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prepared))
	require.NotEmpty(t, prepared.AttemptID)
	assert.Equal(t, "acct", prepared.Config["cloudName"])
	assert.Equal(t, "preset", prepared.Config["uploadPreset"])
	assert.Equal(t, "auto", prepared.Config["resourceType"])
	assert.Equal(t, map[string]any{"fullName": "Jane Doe", "companyName": "Acme Freight"}, prepared.Config["metadata"])
	assert.Empty(t, srv.widget.opened)

	resultPath := "/api/v1/forms/" + id + "/attempts/" + prepared.AttemptID + "/result"
	rec = srv.do(t, http.MethodPost, resultPath, gin.H{
		"event": "error",
		"info":  gin.H{"message": "Invalid format: gif"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, form.StatusInvalidFormat, decodeSession(t, rec).Status)

	// A late callback for the same attempt changes nothing.
	rec = srv.do(t, http.MethodPost, resultPath, gin.H{
		"event": "success",
		"info":  gin.H{"secure_url": "https://cdn/x.pdf", "original_filename": "x"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, form.StatusInvalidFormat, decodeSession(t, rec).Status)
}

func TestWidget_ErrorObject(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane", "Acme")

	rec := srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/widget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	attemptID := decodeSession(t, httptestBody(t, rec, "session")).AttemptID

	rec = srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/attempts/"+attemptID+"/result", gin.H{
		"error": gin.H{"message": "File size (12MB) exceeds maximum allowed (10MB)"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, form.StatusTooLarge, decodeSession(t, rec).Status)
}

func TestWidget_Rejected(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "", "Acme")

	rec := srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/widget", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, form.StatusMissingFields, decodeSession(t, rec).Status)
}

func TestUpdateField_Errors(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane", "Acme")

	rec := srv.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/email", gin.H{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/fullName", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/v1/forms/missing/fields/fullName", gin.H{"value": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var msg middleware.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "Form session not found", msg.Body)
}

func TestUpdateField_Idempotent(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createFilled(t, "Jane", "Acme")

	first := decodeSession(t, srv.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/fullName", gin.H{"value": "Jane"}))
	second := decodeSession(t, srv.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/fullName", gin.H{"value": "Jane"}))
	assert.Equal(t, first.FormData, second.FormData)
}

func TestGet_Unknown(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/api/v1/forms/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPage(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), WidgetScriptURL)
	assert.Contains(t, rec.Body.String(), "Freight Claim Recovery Submission")
}

func TestPage_TurnstileRequestShape(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv := newTestServer(t, &validators.Turnstile{Secret: "secret", TestToken: "dev", Logger: logger})

	page := srv.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, TurnstileScriptURL)
	assert.Contains(t, body, `data-sitekey="site-key"`)
	assert.Contains(t, body, "X-Turnstile-Token")

	id := srv.createFilled(t, "Jane", "Acme")

	// The page posts to /widget with the token in a header and no body.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/"+id+"/widget", nil)
	req.Header.Set("X-Turnstile-Token", "dev")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/v1/forms/"+id+"/widget", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPage_WithoutTurnstile(t *testing.T) {
	srv := newTestServer(t, nil)
	body := srv.do(t, http.MethodGet, "/", nil).Body.String()
	assert.NotContains(t, body, TurnstileScriptURL)
	assert.NotContains(t, body, "cf-turnstile\"")
}

func TestHealthAndNoRoute(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/nope", nil).Code)
}

// httptestBody re-wraps one field of a JSON response as a recorder body.
func httptestBody(t *testing.T, rec *httptest.ResponseRecorder, field string) *httptest.ResponseRecorder {
	t.Helper()
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	out := httptest.NewRecorder()
	_, _ = out.Write(payload[field])
	return out
}
