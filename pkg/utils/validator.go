package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlRegex = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	lineControl  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	unsafeName   = regexp.MustCompile(`[^\p{L}\p{N}._\- ]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// SanitizeString strips control characters other than tab and line breaks,
// then surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlRegex.ReplaceAllString(s, ""))
}

// SanitizeLine is SanitizeString for single-line fields such as names
func SanitizeLine(s string) string {
	return strings.TrimSpace(lineControl.ReplaceAllString(s, ""))
}

// SanitizeFilename reduces an uploaded file name to its base name
// with only letters, digits, dot, dash, underscore and space kept.
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(unsafeName.ReplaceAllString(base, "_"))
}
