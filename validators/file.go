package validators

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFile applies the widget's client-side limits to a selected file.
// Error texts follow the widget's own wording so they classify the same way.
func ValidateFile(name string, size int64, allowedFormats []string, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("File size (%d bytes) exceeds maximum allowed (%d bytes)", size, maxSize)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if len(allowedFormats) == 0 {
		return nil
	}
	for _, format := range allowedFormats {
		if strings.EqualFold(format, ext) {
			return nil
		}
	}
	return fmt.Errorf("Invalid format: %q is not one of %s", ext, strings.Join(allowedFormats, ", "))
}
