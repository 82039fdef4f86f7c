// Package widget is the bridge to the upload widget: it hands one selected file
// to remote storage and reports the outcome through a single callback.
package widget

import (
	"context"
	"errors"

	"github.com/CorrelAid/debtor_submission_uploader/models"
)

var ErrClosed = errors.New("widget is closed")

// Config mirrors the upload widget options. JSON names match the browser
// widget so the record can be passed to it unchanged.
type Config struct {
	AccountID            string            `json:"cloudName"`
	UploadPresetID       string            `json:"uploadPreset"`
	Sources              []string          `json:"sources"`
	Multiple             bool              `json:"multiple"`
	ResourceType         string            `json:"resourceType"`
	ClientAllowedFormats []string          `json:"clientAllowedFormats"`
	MaxFileSize          int64             `json:"maxFileSize"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

// DefaultMaxFileSize is the widget's file size limit.
const DefaultMaxFileSize = 10 * 1024 * 1024

func DefaultConfig(accountID, uploadPresetID string) Config {
	return Config{
		AccountID:            accountID,
		UploadPresetID:       uploadPresetID,
		Sources:              []string{"local"},
		Multiple:             false,
		ResourceType:         "auto",
		ClientAllowedFormats: []string{"pdf", "jpg", "jpeg", "png"},
		MaxFileSize:          DefaultMaxFileSize,
	}
}

// WithMetadata returns a copy of c carrying metadata.
func (c Config) WithMetadata(metadata map[string]string) Config {
	out := c
	out.Sources = append([]string(nil), c.Sources...)
	out.ClientAllowedFormats = append([]string(nil), c.ClientAllowedFormats...)
	out.Metadata = make(map[string]string, len(metadata))
	for k, v := range metadata {
		out.Metadata[k] = v
	}
	return out
}

// File is a selected file, read fully into memory.
type File struct {
	Name    string
	Content []byte
}

// Callback receives either an error or a result, never both.
type Callback func(result *models.UploadResult, err error)

// Widget opens an upload. Open returns as soon as the upload is under way;
// the callback fires later, from another goroutine.
type Widget interface {
	Open(ctx context.Context, cfg Config, file File, cb Callback) error
	Close(ctx context.Context) error
}

// Transport moves a file to remote storage. A vendor-side rejection comes
// back as a result with the error event; err is reserved for failures to
// reach the vendor at all.
type Transport interface {
	Transfer(ctx context.Context, cfg Config, file File) (*models.UploadResult, error)
}
