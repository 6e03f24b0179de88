// Package validate provides input validation for user supplied text such as
// search keywords.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// MaxKeywordLength is the longest keyword accepted, in characters.
const MaxKeywordLength = 100

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length (0 = no minimum)
	MaxLength      int            // Maximum length (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	AllowEmpty     bool
	TrimSpace      bool
	// CollapseSpace replaces every run of whitespace with a single space.
	CollapseSpace bool
	// RejectControl rejects control and format characters.
	RejectControl bool
}

// KeywordConstraints apply to search and trending keywords.
var KeywordConstraints = StringConstraints{
	MinLength:     1,
	MaxLength:     MaxKeywordLength,
	TrimSpace:     true,
	CollapseSpace: true,
	RejectControl: true,
}

// String validates s against constraints and returns the normalized value.
// Lengths count runes, not bytes.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.RejectControl {
		if err := checkControl(s); err != nil {
			return "", err
		}
	}
	if constraints.CollapseSpace {
		s = strings.Join(strings.Fields(s), " ")
	} else if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)
	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// checkControl allows ordinary whitespace but no other control or format
// characters. Invalid UTF-8 is rejected too.
func checkControl(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8", ErrInvalidCharacters)
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return fmt.Errorf("%w: control character %U", ErrInvalidCharacters, r)
		}
	}
	return nil
}

// Keyword validates a search keyword: 1 to 100 characters after whitespace
// is trimmed and collapsed, with no control characters.
func Keyword(keyword string) (string, error) {
	k, err := String(keyword, KeywordConstraints)
	if err != nil {
		return "", fmt.Errorf("keyword: %w", err)
	}
	return k, nil
}

// Keywords validates every keyword and drops duplicates, keeping the first
// occurrence. Comparison is case-sensitive.
func Keywords(keywords []string) ([]string, error) {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for i, raw := range keywords {
		k, err := Keyword(raw)
		if err != nil {
			return nil, fmt.Errorf("keyword %d: %w", i, err)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}
