package widget

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/CorrelAid/debtor_submission_uploader/models"
)

// WebDAV stores documents in a WebDAV collection such as a Nextcloud folder.
type WebDAV struct {
	BaseURL  string
	Username string
	Password string
	Client   *http.Client
	Now      func() time.Time
}

func (w *WebDAV) Transfer(ctx context.Context, cfg Config, file File) (*models.UploadResult, error) {
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	filename := fmt.Sprintf("%s_%s_%s%s",
		processName(cfg.Metadata[models.FieldCompanyName]),
		processName(cfg.Metadata[models.FieldFullName]),
		now().Format("2006-01-02_150405"),
		ext,
	)
	target := strings.TrimSuffix(w.BaseURL, "/") + "/" + url.PathEscape(filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(file.Content))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.SetBasicAuth(w.Username, w.Password)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusNoContent:
		return &models.UploadResult{
			Event: models.EventSuccess,
			Info: models.UploadInfo{
				SecureURL:        target,
				OriginalFilename: strings.TrimSuffix(file.Name, filepath.Ext(file.Name)),
			},
		}, nil
	case http.StatusRequestEntityTooLarge:
		return errorResult("File size exceeds the storage limit"), nil
	case http.StatusUnsupportedMediaType:
		return errorResult("Invalid format rejected by storage"), nil
	default:
		return errorResult(fmt.Sprintf("failed to upload file: %s", resp.Status)), nil
	}
}

func errorResult(message string) *models.UploadResult {
	return &models.UploadResult{
		Event: models.EventError,
		Info:  models.UploadInfo{Message: message},
	}
}

func processName(input string) string {
	lowercase := strings.ToLower(strings.TrimSpace(input))
	return strings.ReplaceAll(lowercase, " ", "_")
}
