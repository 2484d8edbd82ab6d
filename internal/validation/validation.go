// Package validation holds the field rules shared by the HTTP layer and the
// submission pipeline, so a client-accepted submission can never be rejected
// server-side on basic shape.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"school-directory/internal/models"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	contactPattern = regexp.MustCompile(`^[0-9]{10}$`)
)

const (
	MaxNameLen    = 100
	MaxAddressLen = 500
	MaxCityLen    = 50
)

// ValidEmail reports whether s has a local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidContact reports whether s is exactly 10 decimal digits.
func ValidContact(s string) bool {
	return contactPattern.MatchString(s)
}

// ValidateSchool checks a candidate record and returns the first violation.
// Presence is checked before format, format before length bounds.
func ValidateSchool(in models.SchoolInput) error {
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"address", in.Address},
		{"city", in.City},
		{"state", in.State},
		{"contact", in.Contact},
		{"email", in.Email},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &models.ValidationError{Message: fmt.Sprintf("%s is required", f.field)}
		}
	}

	if !ValidEmail(in.Email) {
		return &models.ValidationError{Message: "invalid email format"}
	}
	if !ValidContact(in.Contact) {
		return &models.ValidationError{Message: "contact must be 10 digits"}
	}

	bounds := []struct {
		field string
		value string
		max   int
	}{
		{"name", in.Name, MaxNameLen},
		{"address", in.Address, MaxAddressLen},
		{"city", in.City, MaxCityLen},
	}
	for _, b := range bounds {
		if len(b.value) > b.max {
			return &models.ValidationError{Message: fmt.Sprintf("%s must be at most %d characters", b.field, b.max)}
		}
	}

	return nil
}
