package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"triproom/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	roomCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)
	amountRegex   = regexp.MustCompile(`^([0-9]+)(?:\.([0-9]{1,2}))?$`)
)

// maxAmountCents keeps cent values far away from int64 overflow.
const maxAmountCents = 100_000_000_000_000

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// Required fails when value is blank after trimming
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// ParseAmount parses a decimal string such as "50.50" into cents. Only plain
// digits with an optional fraction of at most two digits are accepted; signs,
// exponents and extra precision are rejected rather than rounded.
func ParseAmount(field, value string) (models.Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ValidationError{Field: field, Message: field + " is required"}
	}
	if strings.HasPrefix(value, "-") {
		return 0, ValidationError{Field: field, Message: field + " must not be negative"}
	}

	m := amountRegex.FindStringSubmatch(value)
	if m == nil {
		return 0, ValidationError{Field: field, Message: field + " must be a decimal number with at most 2 decimal places"}
	}

	whole, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || whole > maxAmountCents/100 {
		return 0, ValidationError{Field: field, Message: field + " is too large"}
	}
	cents := whole * 100
	if frac := m[2]; frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		n, _ := strconv.Atoi(frac)
		cents += int64(n)
	}
	if cents > maxAmountCents {
		return 0, ValidationError{Field: field, Message: field + " is too large"}
	}

	return models.Amount(cents), nil
}

// ValidateDate checks a YYYY-MM-DD calendar date
func ValidateDate(field, value string) error {
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return ValidationError{Field: field, Message: field + " must be a date in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateTimeOfDay checks an HH:MM time of day
func ValidateTimeOfDay(field, value string) error {
	if len(value) != 5 {
		return ValidationError{Field: field, Message: field + " must be a time in HH:MM format"}
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return ValidationError{Field: field, Message: field + " must be a time in HH:MM format"}
	}
	return nil
}

// NormalizeRoomCode trims and upper-cases a code typed by a user
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode checks a normalized room code
func ValidateRoomCode(code string) error {
	if code == "" {
		return ValidationError{Field: "code", Message: "code is required"}
	}
	if !roomCodeRegex.MatchString(code) {
		return ValidationError{Field: "code", Message: "code must be 6 letters or digits"}
	}
	return nil
}

// CleanOptions trims every poll option and drops the blank ones, keeping
// the original order.
func CleanOptions(options []string) []string {
	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			cleaned = append(cleaned, opt)
		}
	}
	return cleaned
}
