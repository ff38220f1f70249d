package service

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field limits.
const (
	MaxEmailLength       = 254
	MaxDisplayNameLength = 50
	MaxBioLength         = 300
	MaxTitleLength       = 100
	MaxAmountLength      = 20
	MaxChoiceLength      = 30
	MaxNotesLength       = 2000
	MaxBrandLength       = 100
	MaxOriginLength      = 100
	MaxLocationLength    = 100
	MaxURLLength         = 2048
	MaxPushTokenLength   = 255
)

// normalizeEmail trims and lower-cases an address and checks its shape.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > MaxEmailLength {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", ErrInvalidEmail
	}

	return email, nil
}

// cleanText trims a free-text field and enforces its limit.
// Newlines and tabs are allowed only when multiline is set.
func cleanText(field, value string, maxLen int, required, multiline bool) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return "", invalidField(field, "is required")
		}
		return "", nil
	}

	if !utf8.ValidString(value) {
		return "", invalidField(field, "must be valid UTF-8")
	}
	if utf8.RuneCountInString(value) > maxLen {
		return "", invalidField(field, "is too long")
	}

	for _, r := range value {
		if r == '\n' || r == '\r' || r == '\t' {
			if !multiline {
				return "", invalidField(field, "must be a single line")
			}
			continue
		}
		if unicode.IsControl(r) {
			return "", invalidField(field, "contains control characters")
		}
	}

	return value, nil
}

// cleanImageURL accepts an empty value or an http(s) URL.
func cleanImageURL(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if len(value) > MaxURLLength {
		return "", invalidField(field, "is too long")
	}

	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", invalidField(field, "must be an http(s) URL")
	}

	// Block scheme smuggling through encoded or nested URLs.
	for _, scheme := range []string{"javascript:", "data:", "vbscript:", "file:"} {
		if strings.Contains(lower, scheme) {
			return "", invalidField(field, "uses an unsafe scheme")
		}
	}

	return value, nil
}

// optionalText applies cleanText to a field that may be absent from a patch.
func optionalText(field string, value *string, maxLen int, multiline bool) (*string, error) {
	if value == nil {
		return nil, nil
	}
	cleaned, err := cleanText(field, *value, maxLen, false, multiline)
	if err != nil {
		return nil, err
	}
	return &cleaned, nil
}
