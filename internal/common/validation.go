package common

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"careercoach/internal/errors"
)

// DefaultMinPromptLength is the shortest prompt accepted for code generation.
const DefaultMinPromptLength = 10

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidatePrompt rejects a code-generation request before it reaches the
// client. minLength counts characters of the trimmed prompt; zero or less
// selects DefaultMinPromptLength.
func ValidatePrompt(language, prompt string, minLength int) error {
	if strings.TrimSpace(language) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Please choose a programming language.", nil)
	}
	if minLength <= 0 {
		minLength = DefaultMinPromptLength
	}
	if utf8.RuneCountInString(strings.TrimSpace(prompt)) < minLength {
		return errors.NewValidationError(errors.ErrCodePromptTooShort,
			fmt.Sprintf("Please enter a prompt of at least %d characters.", minLength), nil).
			WithContext("min_length", minLength)
	}
	return nil
}
