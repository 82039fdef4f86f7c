package models

// Widget callback events.
const (
	EventSuccess = "success"
	EventError   = "error"
)

type UploadInfo struct {
	SecureURL        string `json:"secure_url,omitempty"`
	OriginalFilename string `json:"original_filename,omitempty"`
	Message          string `json:"message,omitempty"`
}

// UploadResult is the result object the upload widget hands to its callback.
type UploadResult struct {
	Event string     `json:"event"`
	Info  UploadInfo `json:"info"`
}

// WidgetError is the error object the upload widget hands to its callback.
type WidgetError struct {
	Message string `json:"message"`
}

func (e *WidgetError) Error() string {
	return e.Message
}
