package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier for safety and correctness.
// Identifiers flow into cache keys, DOT output, and file names, so the
// rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node id too long (max 256 characters)")
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidateGeometry validates a node's position and size. Non-finite values
// are the one geometry failure the engine tolerates silently frame-to-frame,
// but writes through the public API are rejected up front.
func ValidateGeometry(x, y, width, height float64) error {
	for _, v := range []float64{x, y, width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidGeometry, "coordinates must be finite, got (%v, %v, %v, %v)", x, y, width, height)
		}
	}
	if width < 0 || height < 0 {
		return New(ErrCodeInvalidGeometry, "size cannot be negative: %vx%v", width, height)
	}
	return nil
}

// ValidatePath validates a graph or output file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// formatRegex matches supported render format names.
var formatRegex = regexp.MustCompile(`^(svg|png|dot|json)$`)

// ValidateFormat validates a render output format name.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}

	if !formatRegex.MatchString(format) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want svg, png, dot, or json)", format)
	}

	return nil
}

// scopeRegex matches valid scope identifiers: either the empty root scope or
// a node id path joined by slashes.
var scopeRegex = regexp.MustCompile(`^[^/\x00]+(/[^/\x00]+)*$`)

// ValidateScope validates a scope identifier. The empty string is the root
// scope and always valid.
func ValidateScope(scope string) error {
	if scope == "" {
		return nil
	}

	if len(scope) > 1024 {
		return New(ErrCodeInvalidInput, "scope too long (max 1024 characters)")
	}

	if !scopeRegex.MatchString(scope) {
		return New(ErrCodeInvalidInput, "invalid scope %q", scope)
	}

	return nil
}
