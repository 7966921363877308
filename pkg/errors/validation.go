package errors

import (
	"strings"
	"unicode"
)

const (
	maxIDLength   = 128
	maxNameLength = 256
	maxTextLength = 10000
)

// ValidateID validates a record identifier (tree, person, relationship or owner).
//
// Identifiers are opaque, but they end up in URLs, cache keys and Mongo
// filters, so the rules are conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - No path separators
//   - Maximum length of 128 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "%s id contains invalid characters", kind)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidID, "%s id cannot contain path separators", kind)
	}
	return nil
}

// ValidateName validates a display name (tree name, first or last name).
// Empty names are rejected only when required is set.
func ValidateName(field, name string, required bool) error {
	if strings.TrimSpace(name) == "" {
		if required {
			return New(ErrCodeInvalidInput, "%s cannot be empty", field)
		}
		return nil
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", field, maxNameLength)
	}
	for _, r := range name {
		if r == '\x00' || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", field)
		}
	}
	return nil
}

// ValidateText validates free-form text such as a biography or description.
func ValidateText(field, text string) error {
	if len(text) > maxTextLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", field, maxTextLength)
	}
	if strings.ContainsRune(text, '\x00') {
		return New(ErrCodeInvalidInput, "%s contains null bytes", field)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It accepts http(s) URLs and server-relative paths such as "/uploads/x.png".
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if strings.HasPrefix(rawURL, "/") && !strings.HasPrefix(rawURL, "//") {
		if strings.Contains(rawURL, "..") {
			return New(ErrCodeInvalidInput, "URL path cannot contain path traversal sequences (..)")
		}
		return nil
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
