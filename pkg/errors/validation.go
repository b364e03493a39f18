package errors

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// MaxTextGraphemes bounds the overlay text length in user-perceived characters.
const MaxTextGraphemes = 100

// ValidateFilename checks that name is a plain file name inside a storage
// directory: non-empty, at most 255 bytes, no path separators, no traversal and
// no control characters.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidPath, "file name too long (max 255 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || filepath.Base(name) != name {
		return New(ErrCodeInvalidPath, "file name cannot contain path components: %q", name)
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "file name cannot be a hidden file")
	}
	return nil
}

// ValidateDimensions checks an output resolution.
func ValidateDimensions(w, h int) error {
	const maxSide = 4096
	if w <= 0 || h <= 0 {
		return New(ErrCodeInvalidParams, "dimensions must be positive, got %dx%d", w, h)
	}
	if w > maxSide || h > maxSide {
		return New(ErrCodeInvalidParams, "dimensions exceed %d pixels, got %dx%d", maxSide, w, h)
	}
	return nil
}

// ValidateName trims a display name and rejects control characters. Empty
// names are allowed; callers apply their own default.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) > 100 {
		return "", New(ErrCodeInvalidInput, "name too long (max 100 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	return name, nil
}

// ValidateText rejects overlay text longer than MaxTextGraphemes grapheme
// clusters. Empty text is allowed; layout renders it as a single space.
func ValidateText(text string) error {
	if n := uniseg.GraphemeClusterCount(text); n > MaxTextGraphemes {
		return New(ErrCodeInvalidParams, "text too long: %d characters (max %d)", n, MaxTextGraphemes)
	}
	return nil
}
