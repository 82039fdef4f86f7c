package form

import (
	"fmt"
	"strings"
)

// Status messages shown to the submitter.
const (
	StatusMissingFields    = "Please fill in all required fields (Full Name and Company Name)."
	StatusSubmitted        = "Form submitted successfully!"
	StatusSubmissionFailed = "Form submission failed: Missing required fields."
	StatusTooLarge         = "File is too large. Maximum size is 10MB."
	StatusInvalidFormat    = "Invalid file format. Please upload PDF, JPG, or PNG."
)

func uploadedStatus(filename string) string {
	return fmt.Sprintf(`File "%s" uploaded successfully!`, filename)
}

// ClassifyUploadError turns raw widget error text into a message for the
// submitter. Matching is case-sensitive and the first hit wins. Anything
// unrecognised is embedded into generic, which must hold one %s verb; empty
// raw text is replaced by fallback first.
func ClassifyUploadError(raw, generic, fallback string) string {
	switch {
	case strings.Contains(raw, "File size"):
		return StatusTooLarge
	case strings.Contains(raw, "Invalid format"):
		return StatusInvalidFormat
	}
	if raw == "" {
		raw = fallback
	}
	return fmt.Sprintf(generic, raw)
}
