package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultLanguages lists the languages offered to users of the code generator.
var DefaultLanguages = []string{"Python", "Java", "JavaScript", "C++", "Go", "Rust"}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Code generation
	v.SetDefault("codegen.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("codegen.model", "LinguaLogic")
	v.SetDefault("codegen.historySize", 10)
	v.SetDefault("codegen.minPromptLength", 10)
	v.SetDefault("codegen.languages", DefaultLanguages)
	v.SetDefault("codegen.retry.maxAttempts", 3)
	v.SetDefault("codegen.retry.attemptTimeout", 60*time.Second)
	v.SetDefault("codegen.retry.delay", 5*time.Second)
	v.SetDefault("codegen.circuitBreaker.enabled", false)
	v.SetDefault("codegen.circuitBreaker.maxRequests", 1)
	v.SetDefault("codegen.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("codegen.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("codegen.circuitBreaker.minRequests", 5)
	v.SetDefault("codegen.circuitBreaker.failureThreshold", 0.8)

	// Usage statistics
	v.SetDefault("stats.backend", "file")
	v.SetDefault("stats.dir", ".")
	v.SetDefault("stats.file", "session_data.json")
	v.SetDefault("stats.sqlitePath", "careercoach.db")

	// Chatbot
	v.SetDefault("chat.provider", "openai")
	v.SetDefault("chat.model", "gpt-4-0125-preview")
	v.SetDefault("chat.baseURL", "")
	v.SetDefault("chat.apiKey", "")
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.maxTokens", 0)
	v.SetDefault("chat.timeout", 60*time.Second)
	v.SetDefault("chat.maxMessages", 20)

	// Resume analysis - global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// Resume analysis - operation defaults
	v.SetDefault("ai.analyze.provider", "gemini")
	v.SetDefault("ai.analyze.model", "")
	v.SetDefault("ai.analyze.timeout", 75*time.Second) // PDFs take longer
	v.SetDefault("ai.analyze.apiKey", "")
	v.SetDefault("ai.analyze.maxRetries", 2)
	v.SetDefault("ai.analyze.temperature", 0.2)
	v.SetDefault("ai.analyze.useSystemPrompts", true)
	v.SetDefault("ai.analyze.circuitBreaker.enabled", true)
	v.SetDefault("ai.analyze.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.analyze.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.analyze.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.analyze.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.analyze.circuitBreaker.failureThreshold", 0.6)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Minute) // covers a fully retried generation
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 10*1024*1024)
	v.SetDefault("server.sessionHeader", "X-Session-ID")
	v.SetDefault("server.sessionIdleTimeout", 30*time.Minute)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.fileWatcher.enabled", true)
	v.SetDefault("server.tls.autoReload.fileWatcher.debounceDelay", time.Second)
	v.SetDefault("server.tls.autoReload.vaultWatcher.enabled", false)
	v.SetDefault("server.tls.autoReload.vaultWatcher.pollInterval", 5*time.Minute)
	v.SetDefault("server.tls.autoReload.vaultWatcher.secretPath", "")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.logFormat", "text")
	v.SetDefault("app.logFile", "")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // resumes are PDFs

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.chatKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")
	v.SetDefault("vault.keyRotationInterval", 5*time.Minute)

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "careercoach")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertExpiry", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

// Default returns the configuration built from defaults alone, without
// reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic("config: defaults do not unmarshal: " + err.Error())
	}
	config.applyFallbacks()
	return &config
}
