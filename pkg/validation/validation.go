package validation

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
)

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	return email != "" && emailRegex.MatchString(email) && len(email) <= 200
}

// ValidatePhone accepts digits with an optional leading +, ignoring spaces
// and dashes.
func ValidatePhone(phone string) bool {
	phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	return phone != "" && phoneRegex.MatchString(phone)
}

func ValidatePassword(password string) bool {
	return len(password) >= 6 && len(password) <= 100
}
