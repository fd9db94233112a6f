// Package validation checks names and numbers read from scenario files
// before they reach the collision world.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLen bounds layer and body names
const MaxNameLen = 64

// Letters, digits, spaces and a few separators. Names end up as log
// attributes and map keys, so anything else is rejected.
var validNameChars = regexp.MustCompile(`^[a-zA-Z0-9 \-_.:/]+$`)

// ValidateName checks a layer or body name. kind names the thing being
// validated in the error message.
func ValidateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%s name too long: %d characters (max %d)", kind, len(name), MaxNameLen)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%s name contains invalid UTF-8 characters", kind)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name cannot be only whitespace", kind)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%s name %q has leading or trailing whitespace", kind, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%s name contains control characters", kind)
		}
	}
	if !validNameChars.MatchString(name) {
		return fmt.Errorf("%s name %q contains invalid characters", kind, name)
	}
	return nil
}

// ValidateFinite returns an error naming the first field whose value is NaN
// or infinite. fields[i] names values[i]:
// ValidateFinite([]string{"x", "y"}, x, y).
func ValidateFinite(fields []string, values ...float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			name := fmt.Sprintf("value %d", i)
			if i < len(fields) {
				name = fields[i]
			}
			return fmt.Errorf("%s must be finite, got %v", name, v)
		}
	}
	return nil
}

// ValidateNonNegative rejects negative sizes
func ValidateNonNegative(field string, v float64) error {
	if v < 0 {
		return fmt.Errorf("%s cannot be negative: %v", field, v)
	}
	return nil
}
