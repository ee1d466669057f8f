package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]*VaultSecret

func (f fakeSecrets) GetSecretV2(path string) (*VaultSecret, error) {
	s, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return s, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDecodeKVv2(t *testing.T) {
	t.Run("valid envelope", func(t *testing.T) {
		secret, err := decodeKVv2(map[string]any{
			"data":     map[string]any{"api_key": "abc"},
			"metadata": map[string]any{"version": float64(3)},
		}, "secret/data/gemini")
		require.NoError(t, err)
		assert.Equal(t, int64(3), secret.Version)
		assert.Equal(t, "abc", secret.Data["api_key"])
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := decodeKVv2(map[string]any{"api_key": "abc"}, "secret/gemini")
		assert.ErrorContains(t, err, "missing 'data' field")
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := decodeKVv2(map[string]any{
			"data":     map[string]any{},
			"metadata": map[string]any{},
		}, "secret/data/gemini")
		assert.ErrorContains(t, err, "missing 'version' field")
	})
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{AI: AIConfig{Analyze: OperationAIConfig{APIKey: "explicit"}}}

	applyGeminiKeyToConfig(config, "vault-key")

	assert.Equal(t, "vault-key", config.AI.APIKey)
	assert.Equal(t, "explicit", config.AI.Analyze.APIKey)
}

func TestApplySecrets(t *testing.T) {
	secrets := fakeSecrets{
		"secret/data/keys":   {Data: map[string]any{"keys": "k1, k2 ,,k3"}},
		"secret/data/gemini": {Data: map[string]any{"api_key": "gem"}},
		"secret/data/openai": {Data: map[string]any{"api_key": "oai"}},
		"secret/data/tls":    {Data: map[string]any{"cert": "cert-pem", "key": "key-pem"}},
	}
	config := Default()
	config.Vault.Secrets = VaultSecrets{
		APIKeys:   "secret/data/keys",
		GeminiKey: "secret/data/gemini",
		ChatKey:   "secret/data/openai",
		TLSCerts:  "secret/data/tls",
	}

	require.NoError(t, applySecrets(secrets, config, nil))

	assert.Equal(t, []string{"k1", "k2", "k3"}, config.Server.APIKeys)
	assert.Equal(t, "gem", config.AI.APIKey)
	assert.Equal(t, "gem", config.GetAnalyzeConfig().APIKey)
	assert.Equal(t, "oai", config.Chat.APIKey)
	assert.Equal(t, "cert-pem", config.Server.TLS.CertContent)
	assert.Equal(t, "key-pem", config.Server.TLS.KeyContent)
	assert.Empty(t, config.Server.TLS.CAContent)
}

func TestApplySecretsMissingPath(t *testing.T) {
	config := Default()
	config.Vault.Secrets.ChatKey = "secret/data/absent"

	err := applySecrets(fakeSecrets{}, config, nil)
	assert.ErrorContains(t, err, "chat API key")
}

func TestValidateTLSDeprecatedFields(t *testing.T) {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		t.Run(field, func(t *testing.T) {
			err := validateTLSDeprecatedFields(&VaultSecret{Data: map[string]any{field: "/path"}})
			assert.ErrorContains(t, err, field)
			assert.ErrorContains(t, err, "no longer supported")
		})
	}

	assert.NoError(t, validateTLSDeprecatedFields(&VaultSecret{Data: map[string]any{"cert": "pem"}}))
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: path})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.Error(t, err)
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	client, err := ApplyVaultSecrets(&Config{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****mnop", maskSecret("abcdefghijklmnop"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}
