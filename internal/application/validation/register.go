// Package validation holds the client-side form rules that run before any
// request is sent.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\-()\s]+$`)
)

const (
	minNameLength     = 2
	minPasswordLength = 8
)

// RegistrationForm is the registration page input, including the terms
// checkbox which is never sent to the server.
type RegistrationForm struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	AgreeToTerms    bool
}

// Request converts the form into the wire request.
func (f RegistrationForm) Request() dto.RegisterRequest {
	return dto.RegisterRequest{
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		Email:           f.Email,
		Phone:           f.Phone,
		Password:        f.Password,
		ConfirmPassword: f.ConfirmPassword,
	}
}

// ValidateRegistration checks every field and returns nil when the form can
// be submitted. Each field reports at most one message.
func ValidateRegistration(f RegistrationForm) *errors.ValidationErrors {
	v := &errors.ValidationErrors{}

	validateName(v, "first_name", "First name", f.FirstName)
	validateName(v, "last_name", "Last name", f.LastName)

	if msg := EmailProblem(f.Email); msg != "" {
		v.Add("email", msg)
	}

	switch {
	case strings.TrimSpace(f.Phone) == "":
		v.Add("phone", "Phone number is required")
	case !phonePattern.MatchString(f.Phone):
		v.Add("phone", "Please enter a valid phone number")
	}

	if msg := PasswordProblem(f.Password); msg != "" {
		v.Add("password", msg)
	}

	switch {
	case strings.TrimSpace(f.ConfirmPassword) == "":
		v.Add("confirm_password", "Please confirm your password")
	case f.Password != f.ConfirmPassword:
		v.Add("confirm_password", "Passwords do not match")
	}

	if !f.AgreeToTerms {
		v.Add("agree_to_terms", "You must agree to the Terms of Service and Privacy Policy")
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

// EmailProblem returns the message for an invalid email, or "".
func EmailProblem(email string) string {
	switch {
	case strings.TrimSpace(email) == "":
		return "Email is required"
	case !emailPattern.MatchString(email):
		return "Please enter a valid email address"
	}
	return ""
}

// PasswordProblem returns the message for a weak password, or "".
func PasswordProblem(password string) string {
	switch {
	case strings.TrimSpace(password) == "":
		return "Password is required"
	case utf8.RuneCountInString(password) < minPasswordLength:
		return "Password must be at least 8 characters"
	case !hasLowerUpperDigit(password):
		return "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	}
	return ""
}

func validateName(v *errors.ValidationErrors, field, label, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		v.Add(field, label+" is required")
	case utf8.RuneCountInString(value) < minNameLength:
		v.Add(field, label+" must be at least 2 characters")
	}
}

// hasLowerUpperDigit requires an ASCII lowercase letter, uppercase letter and
// digit somewhere in s. RE2 has no lookaheads, so this is a scan.
func hasLowerUpperDigit(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}
