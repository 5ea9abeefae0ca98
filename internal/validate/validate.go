package validate

import (
	"regexp"
	"strings"
	"time"

	"homeshop/internal/domain"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ        = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,19}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Slug validates a category or product slug taken from the URL.
func Slug(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSlug.MatchString(s)
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 30 {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// Address is required free text up to 1024 bytes.
func Address(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 1024 {
		return "", false
	}
	return s, true
}

// Comment is optional free text up to 1024 bytes.
func Comment(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 1024
}

// Date accepts a calendar date in YYYY-MM-DD form.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return "", false
	}
	return s, true
}

func BuyingType(s string) (domain.BuyingType, bool) {
	switch b := domain.BuyingType(strings.TrimSpace(s)); b {
	case domain.BuyingSelf, domain.BuyingDelivery:
		return b, true
	}
	return "", false
}

// Password enforces a length window and character classes.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
