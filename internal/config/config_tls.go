package config

import "fmt"

// tlsRule is one check applied to the server TLS settings.
type tlsRule func(TLSConfig) error

// tlsRulesByMode lists, per mode, the checks that must all pass.
var tlsRulesByMode = map[string][]tlsRule{
	"disabled": nil,
	"server": {
		requireCertAndKey("server mode"),
		rejectDuplicateSource("certFile", "certContent", func(t TLSConfig) (string, string) { return t.CertFile, t.CertContent }),
		rejectDuplicateSource("keyFile", "keyContent", func(t TLSConfig) (string, string) { return t.KeyFile, t.KeyContent }),
	},
	"mutual": {
		requireCertAndKey("mutual mode"),
		requireCA,
		rejectDuplicateSource("certFile", "certContent", func(t TLSConfig) (string, string) { return t.CertFile, t.CertContent }),
		rejectDuplicateSource("keyFile", "keyContent", func(t TLSConfig) (string, string) { return t.KeyFile, t.KeyContent }),
		rejectDuplicateSource("caFile", "caContent", func(t TLSConfig) (string, string) { return t.CAFile, t.CAContent }),
		validateClientAuthPolicy,
	},
}

// ValidateTLSConfig validates the server TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	if err := validateTLSMode(tls); err != nil {
		return err
	}
	return validateTLSVersion(tls)
}

func validateTLSMode(tls TLSConfig) error {
	rules, ok := tlsRulesByMode[tls.Mode]
	if !ok {
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}
	for _, rule := range rules {
		if err := rule(tls); err != nil {
			return err
		}
	}
	return nil
}

func requireCertAndKey(mode string) tlsRule {
	return func(tls TLSConfig) error {
		if (tls.CertFile == "" && tls.CertContent == "") || (tls.KeyFile == "" && tls.KeyContent == "") {
			return fmt.Errorf("TLS certificate and key are required for %s (provide either files or content)", mode)
		}
		return nil
	}
}

func requireCA(tls TLSConfig) error {
	if tls.CAFile == "" && tls.CAContent == "" {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	return nil
}

// rejectDuplicateSource fails when a PEM is given both as a file and inline.
func rejectDuplicateSource(fileField, contentField string, get func(TLSConfig) (string, string)) tlsRule {
	return func(tls TLSConfig) error {
		if file, content := get(tls); file != "" && content != "" {
			return fmt.Errorf("cannot specify both %s and %s - choose one", fileField, contentField)
		}
		return nil
	}
}

func validateClientAuthPolicy(tls TLSConfig) error {
	switch tls.ClientAuthPolicy {
	case "require", "request", "verify", "":
		return nil
	default:
		return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
	}
}

func validateTLSVersion(tls TLSConfig) error {
	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}
