package common

import (
	"testing"

	"careercoach/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{
			name:          "unknown",
			format:        "xml",
			supported:     supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:          "case sensitive",
			format:        "JSON",
			supported:     supported,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{name: "no restrictions", format: "xml", supported: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedError)
		})
	}
}

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name     string
		language string
		prompt   string
		min      int
		code     string
	}{
		{name: "long enough", language: "Go", prompt: "write a fizzbuzz", min: 10},
		{name: "exactly minimum", language: "Go", prompt: "0123456789", min: 10},
		{name: "too short", language: "Go", prompt: "sort it", min: 10, code: errors.ErrCodePromptTooShort},
		{name: "padding does not count", language: "Go", prompt: "   short   ", min: 10, code: errors.ErrCodePromptTooShort},
		{name: "default minimum", language: "Rust", prompt: "too short", min: 0, code: errors.ErrCodePromptTooShort},
		{name: "multibyte characters", language: "Python", prompt: "ñññññññññññ", min: 10},
		{name: "missing language", language: " ", prompt: "write a fizzbuzz", min: 10, code: errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.language, tt.prompt, tt.min)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func BenchmarkValidatePrompt(b *testing.B) {
	for b.Loop() {
		_ = ValidatePrompt("Go", "write a function that reverses a string", 10)
	}
}
