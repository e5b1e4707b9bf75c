package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePackageID validates a package id for safety and correctness.
// Package ids become file and directory names (`<id>.<version>`), so the
// rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path traversal sequences (.., //)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "package id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "package id too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "package id contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Forward slash
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "package id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateSourceName validates a registered source name.
// Source names are registry keys and appear in fastpath handles, so they
// must be simple identifiers without path components.
func ValidateSourceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "source name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "source name cannot contain path separators")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source name contains invalid control characters")
		}
	}

	return nil
}

// ValidateArchiveEntryPath validates a file path inside a package archive.
// It prevents path traversal out of the extraction root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateArchiveEntryPath(path string) error {
	if path == "" {
		return New(ErrCodeArchive, "archive entry path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeArchive, "archive entry path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeArchive, "archive entry path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeArchive, "archive entry path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeArchive, "archive entry path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeArchive, "archive entry path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// packageIDRegex matches the id charset accepted by feeds: letters, digits,
// dots, underscores and hyphens, starting with a letter or digit.
var packageIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateFeedPackageID validates a package id against the feed charset in
// addition to the general safety rules.
func ValidateFeedPackageID(id string) error {
	if err := ValidatePackageID(id); err != nil {
		return err
	}

	if !packageIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid package id: %q", id)
	}

	return nil
}
