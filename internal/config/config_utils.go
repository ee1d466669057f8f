package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
	c.applyChatDefaults()
}

// applyServerAPIKeyFallbacks parses a comma separated key list from the
// environment and trims every configured key.
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = []string{apiKeysEnv}
		}
	}
	c.Server.APIKeys = SplitKeys(strings.Join(c.Server.APIKeys, ","))
}

// SplitKeys splits a comma separated key list, dropping blanks.
func SplitKeys(value string) []string {
	var keys []string
	for _, key := range strings.Split(value, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// applyChatDefaults points the ollama provider at the code-generation host
// when no base URL is given.
func (c *Config) applyChatDefaults() {
	if c.Chat.Provider == "ollama" && c.Chat.BaseURL == "" {
		c.Chat.BaseURL = strings.TrimSuffix(c.Codegen.Endpoint, "/api/generate")
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// StatsPath returns the statistics file for a session. The default session
// keeps the configured file name so existing data files stay readable.
func (c *Config) StatsPath(sessionID string) string {
	if sessionID == "" || sessionID == DefaultSessionID {
		return filepath.Join(c.Stats.Dir, c.Stats.File)
	}
	return filepath.Join(c.Stats.Dir, "session_"+sessionID+".json")
}

// DefaultSessionID names the session used by the CLI when --session is not given.
const DefaultSessionID = "default"

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		EnvPrefix + "_CODEGEN_ENDPOINT",
		EnvPrefix + "_CODEGEN_MODEL",
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_CHAT_APIKEY",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_APP_LOGLEVEL",
		EnvPrefix + "_VAULT_ENABLED",
		"API_URL",        // legacy
		"GOOGLE_API_KEY", // legacy
		"OPENAI_API_KEY", // legacy
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Codegen Endpoint: %s", c.Codegen.Endpoint)
	log.Printf("[CONFIG] Codegen Model: %s", c.Codegen.Model)
	log.Printf("[CONFIG] Codegen Retry: %d attempts, %s timeout, %s delay",
		c.Codegen.Retry.MaxAttempts, c.Codegen.Retry.AttemptTimeout, c.Codegen.Retry.Delay)
	log.Printf("[CONFIG] Stats Backend: %s (%s)", c.Stats.Backend, c.Stats.Dir)
	log.Printf("[CONFIG] Chat Provider: %s, Model: %s", c.Chat.Provider, c.Chat.Model)
	log.Printf("[CONFIG] Analysis Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] Analysis API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Analysis API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
