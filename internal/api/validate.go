package api

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail returns a message when the address is missing or
// malformed, empty string otherwise.
func ValidateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email is required."
	}
	if !emailPattern.MatchString(email) {
		return "Invalid email format."
	}
	return ""
}

// ValidatePasswordStrength applies the signup/reset password rules.
func ValidatePasswordStrength(password string) []string {
	if password == "" {
		return []string{"Password is required."}
	}

	var errs []string
	if len(password) < 8 {
		errs = append(errs, "Must be at least 8 characters.")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		errs = append(errs, "Include a lowercase letter.")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		errs = append(errs, "Include an uppercase letter.")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		errs = append(errs, "Include a number.")
	}
	return errs
}

// ValidateLogin checks the login form. Login only requires a plausible
// email and a non-trivial password; strength rules apply at signup.
func ValidateLogin(email, password string) []string {
	var errs []string
	if msg := ValidateEmail(email); msg != "" {
		errs = append(errs, msg)
	}
	if strings.TrimSpace(password) == "" {
		errs = append(errs, "Password is required.")
	} else if len(password) < 6 {
		errs = append(errs, "Password must be at least 6 characters.")
	}
	return errs
}

// ValidateSignup checks the registration form.
func ValidateSignup(email, password, confirm string) []string {
	var errs []string
	if msg := ValidateEmail(email); msg != "" {
		errs = append(errs, msg)
	}
	errs = append(errs, ValidatePasswordStrength(password)...)
	if confirm != password {
		errs = append(errs, "Passwords do not match.")
	}
	return errs
}

// ValidateChangePassword checks the in-account password change form.
func ValidateChangePassword(current, next, confirm string) []string {
	var errs []string
	if current == "" {
		errs = append(errs, "Current password is required.")
	}
	if current != "" && current == next {
		errs = append(errs, "New password must be different from current.")
		return errs
	}
	errs = append(errs, ValidatePasswordStrength(next)...)
	if confirm != next {
		errs = append(errs, "Passwords do not match.")
	}
	return errs
}
