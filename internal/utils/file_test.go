package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(small, []byte("Senior Go engineer"), 0o600))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantErr string
	}{
		{name: "ok", path: small},
		{name: "within limit", path: small, maxSize: 1024},
		{name: "empty name", path: "", wantErr: "filename cannot be empty"},
		{name: "missing", path: filepath.Join(dir, "missing.txt"), wantErr: "does not exist"},
		{name: "directory", path: dir, wantErr: "is a directory"},
		{name: "too large", path: small, maxSize: 4, wantErr: "larger than the 4 B limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.path, tt.maxSize)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "exports", "resume_analysis.txt")

	require.NoError(t, ValidateOutputFile(out))
	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ValidateOutputFile(""))
	assert.Error(t, ValidateOutputFile(dir))
}

func TestIsTextFileAndIsPDF(t *testing.T) {
	assert.True(t, IsTextFile("job.TXT"))
	assert.True(t, IsTextFile("notes.md"))
	assert.False(t, IsTextFile("resume.pdf"))

	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte("plain resume")))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "5.0 MB", FormatFileSize(5*1024*1024))
}
