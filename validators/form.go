package validators

import (
	"errors"
	"strings"

	"github.com/CorrelAid/debtor_submission_uploader/models"
)

var ErrMissingFields = errors.New("full name and company name fields are required")

// ValidateRequiredFields returns the form data trimmed, or ErrMissingFields
// when either field is blank.
func ValidateRequiredFields(formData models.FormData) (models.FormData, error) {
	trimmed := models.FormData{
		FullName:    strings.TrimSpace(formData.FullName),
		CompanyName: strings.TrimSpace(formData.CompanyName),
	}
	if trimmed.FullName == "" || trimmed.CompanyName == "" {
		return models.FormData{}, ErrMissingFields
	}
	return trimmed, nil
}
