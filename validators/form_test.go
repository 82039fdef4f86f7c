package validators

import (
	"testing"

	"github.com/CorrelAid/debtor_submission_uploader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiredFields(t *testing.T) {
	data, err := ValidateRequiredFields(models.FormData{FullName: " Jane Doe ", CompanyName: "Acme\n"})
	require.NoError(t, err)
	assert.Equal(t, models.FormData{FullName: "Jane Doe", CompanyName: "Acme"}, data)
}

func TestValidateRequiredFields_Missing(t *testing.T) {
	for _, data := range []models.FormData{
		{},
		{FullName: "Jane"},
		{CompanyName: "Acme"},
		{FullName: " ", CompanyName: "Acme"},
	} {
		_, err := ValidateRequiredFields(data)
		assert.ErrorIs(t, err, ErrMissingFields, "%+v", data)
	}
}

func TestValidateFile(t *testing.T) {
	formats := []string{"pdf", "jpg", "jpeg", "png"}

	assert.NoError(t, ValidateFile("invoice.pdf", 1024, formats, 2048))
	assert.NoError(t, ValidateFile("scan.JPG", 1024, formats, 2048))
	assert.NoError(t, ValidateFile("anything.bin", 1024, nil, 0))

	err := ValidateFile("invoice.pdf", 4096, formats, 2048)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File size")

	err = ValidateFile("malware.exe", 10, formats, 2048)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid format")

	err = ValidateFile("noextension", 10, formats, 2048)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid format")
}
