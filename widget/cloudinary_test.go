package widget

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinary_Transfer(t *testing.T) {
	var gotPath, gotPreset string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotPreset = r.FormValue("upload_preset")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/acct/raw/upload/v1/x.pdf","original_filename":"file"}`))
	}))
	defer srv.Close()

	c, err := NewCloudinary(CloudinaryOptions{AccountID: "acct", UploadPrefix: srv.URL})
	require.NoError(t, err)

	cfg := DefaultConfig("acct", "debtor-docs").WithMetadata(map[string]string{"fullName": "Jane"})
	result, err := c.Transfer(context.Background(), cfg, File{Name: "x.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)

	assert.True(t, strings.Contains(gotPath, "/acct/auto/upload"), gotPath)
	assert.Equal(t, "debtor-docs", gotPreset)
	assert.Equal(t, models.EventSuccess, result.Event)
	assert.Equal(t, "https://res.cloudinary.com/acct/raw/upload/v1/x.pdf", result.Info.SecureURL)
	assert.Equal(t, "x", result.Info.OriginalFilename)
}

func TestCloudinary_TransferRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	c, err := NewCloudinary(CloudinaryOptions{AccountID: "acct", UploadPrefix: srv.URL})
	require.NoError(t, err)

	result, err := c.Transfer(context.Background(), DefaultConfig("acct", "missing"), File{Name: "x.pdf", Content: []byte("%PDF")})
	if err != nil {
		// Some SDK versions surface API errors as Go errors.
		return
	}
	assert.Equal(t, models.EventError, result.Event)
	assert.Equal(t, "Upload preset not found", result.Info.Message)
}
