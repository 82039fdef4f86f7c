package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyUploadError(t *testing.T) {
	assert.Equal(t, StatusTooLarge, ClassifyUploadError("File size exceeds limit", "x %s", "y"))
	assert.Equal(t, StatusInvalidFormat, ClassifyUploadError("Invalid format", "x %s", "y"))
	assert.Equal(t, "x boom", ClassifyUploadError("boom", "x %s", "y"))
	assert.Equal(t, "x y", ClassifyUploadError("", "x %s", "y"))
	assert.Equal(t, "x invalid format", ClassifyUploadError("invalid format", "x %s", "y"))
}

func TestUploadedStatus(t *testing.T) {
	assert.Equal(t, `File "x.pdf" uploaded successfully!`, uploadedStatus("x.pdf"))
}
