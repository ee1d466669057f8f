package server

import (
	"crypto/tls"
	"fmt"

	"careercoach/internal/config"
)

// buildTLSConfig returns the listener TLS configuration for cfg. Certificates
// and client CAs are read from cm on every handshake so reloads take effect
// without a restart.
func buildTLSConfig(cfg config.TLSConfig, cm *CertificateManager) (*tls.Config, error) {
	suites, err := cipherSuiteIDs(cfg.CipherSuites)
	if err != nil {
		return nil, err
	}

	base := &tls.Config{
		MinVersion:     minTLSVersion(cfg.MinVersion),
		CipherSuites:   suites,
		GetCertificate: cm.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}
	if cfg.Mode != "mutual" {
		return base, nil
	}

	base.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	base.ClientCAs = cm.ClientCAs()
	base.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		c := base.Clone()
		c.GetConfigForClient = nil
		c.ClientCAs = cm.ClientCAs()
		return c, nil
	}
	return base, nil
}

func minTLSVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// cipherSuiteIDs resolves suite names against the secure suites Go supports.
func cipherSuiteIDs(names []string) ([]uint16, error) {
	if len(names) == 0 {
		return nil, nil
	}
	known := make(map[string]uint16)
	for _, suite := range tls.CipherSuites() {
		known[suite.Name] = suite.ID
	}

	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unsupported cipher suite: %s", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
