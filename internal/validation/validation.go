// Package validation collects field-level problems for request payloads.
// Codes are stable machine-readable strings the UI can map to messages.
package validation

import (
	"fmt"
	"strings"
)

// Violations maps a field name to a problem code.
type Violations map[string]string

func New() Violations { return Violations{} }

func (v Violations) Empty() bool { return len(v) == 0 }

// OrNil returns nil when there are no violations, so callers can use the
// result directly as an optional error payload.
func (v Violations) OrNil() map[string]string {
	if len(v) == 0 {
		return nil
	}
	return v
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v[field] = "required"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func AtLeastInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v[field] = fmt.Sprintf("must_be_at_least_%d", minVal)
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_be_non_negative"
	}
}

// Percent checks a 0..100 rate field.
func Percent(field string, val float64, v Violations) {
	if val < 0 || val > 100 {
		v[field] = "must_be_0_to_100"
	}
}
