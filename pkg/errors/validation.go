package errors

import (
	"strings"
	"unicode"
)

// maxReferenceLength bounds component, port and feature identifiers.
const maxReferenceLength = 256

// ValidateReference validates an identifier used to reference a component,
// port or feature. The rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
//
// The returned error carries ErrCodeInvalidReference.
func ValidateReference(kind, ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidReference, "%s reference cannot be empty", kind)
	}

	if len(ref) > maxReferenceLength {
		return New(ErrCodeInvalidReference, "%s reference too long (max %d characters)", kind, maxReferenceLength)
	}

	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidReference, "%s reference contains invalid control characters", kind)
		}
	}

	if strings.TrimSpace(ref) != ref {
		return New(ErrCodeInvalidReference, "%s reference %q has surrounding whitespace", kind, ref)
	}

	return nil
}

// ValidateName validates a display name (device, layer, connection).
// Names may be empty but must not contain control characters.
func ValidateName(name string) error {
	if len(name) > maxReferenceLength {
		return New(ErrCodeInvalidInput, "name too long (max %d characters)", maxReferenceLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	return nil
}
