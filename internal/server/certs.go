package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
)

const (
	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
	certExpiryInterval    = time.Minute
)

// CertificateManager holds the serving certificate and, in mutual mode, the
// pool of CAs trusted for client certificates. A reload replaces both or
// neither.
type CertificateManager struct {
	cfg     config.TLSConfig
	metrics *observability.Metrics
	logger  *errors.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	clientCA *x509.CertPool
	notAfter time.Time

	reloads        int
	reloadFailures int
	lastReload     time.Time
	lastError      string
}

// NewCertificateManager loads the configured certificate material.
func NewCertificateManager(cfg config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) (*CertificateManager, error) {
	cm := &CertificateManager{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("component", "certificates"),
	}
	certPEM, keyPEM, caPEM, err := cm.readSources()
	if err != nil {
		return nil, err
	}
	if err := cm.install(certPEM, keyPEM, caPEM); err != nil {
		return nil, err
	}
	cm.logger.Info("TLS certificate loaded", "not_after", cm.notAfter, "mode", cfg.Mode)
	return cm, nil
}

func (cm *CertificateManager) mutual() bool {
	return cm.cfg.Mode == "mutual"
}

// readSources returns the PEM blocks, preferring inline content over files.
func (cm *CertificateManager) readSources() (certPEM, keyPEM, caPEM []byte, err error) {
	read := func(content, file, what string) ([]byte, error) {
		if content != "" {
			return []byte(content), nil
		}
		if file == "" {
			return nil, nil
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s file: %w", what, err)
		}
		return data, nil
	}

	if certPEM, err = read(cm.cfg.CertContent, cm.cfg.CertFile, "certificate"); err != nil {
		return nil, nil, nil, err
	}
	if keyPEM, err = read(cm.cfg.KeyContent, cm.cfg.KeyFile, "key"); err != nil {
		return nil, nil, nil, err
	}
	if cm.mutual() {
		if caPEM, err = read(cm.cfg.CAContent, cm.cfg.CAFile, "CA"); err != nil {
			return nil, nil, nil, err
		}
	}
	return certPEM, keyPEM, caPEM, nil
}

// install parses the material and swaps it in. An empty caPEM keeps the
// current client CA pool.
func (cm *CertificateManager) install(certPEM, keyPEM, caPEM []byte) error {
	if len(certPEM) == 0 || len(keyPEM) == 0 {
		return fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	var pool *x509.CertPool
	if len(caPEM) > 0 {
		pool = x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return fmt.Errorf("failed to append CA cert")
		}
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	if pool == nil {
		pool = cm.clientCA
	}
	if cm.mutual() && pool == nil {
		return fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}
	cm.cert = &cert
	cm.clientCA = pool
	cm.notAfter = leaf.NotAfter
	return nil
}

// Reload re-reads the configured files or content.
func (cm *CertificateManager) Reload(ctx context.Context) error {
	certPEM, keyPEM, caPEM, err := cm.readSources()
	if err == nil {
		err = cm.install(certPEM, keyPEM, caPEM)
	}
	cm.recordReload(ctx, err)
	return err
}

// ReloadPEM installs certificate material delivered inline, e.g. from Vault.
func (cm *CertificateManager) ReloadPEM(ctx context.Context, certPEM, keyPEM, caPEM []byte) error {
	err := cm.install(certPEM, keyPEM, caPEM)
	cm.recordReload(ctx, err)
	return err
}

func (cm *CertificateManager) recordReload(ctx context.Context, err error) {
	cm.mu.Lock()
	cm.reloads++
	cm.lastReload = time.Now()
	if err != nil {
		cm.reloadFailures++
		cm.lastError = err.Error()
	} else {
		cm.lastError = ""
	}
	notAfter := cm.notAfter
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(ctx, err == nil, err)
	if err != nil {
		cm.logger.LogError(err, "Failed to reload TLS certificates")
		return
	}
	cm.metrics.RecordCertExpiry(ctx, time.Until(notAfter))
	cm.logger.Info("TLS certificates reloaded", "not_after", notAfter)
}

// GetCertificate implements tls.Config.GetCertificate.
func (cm *CertificateManager) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.cert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.cert, nil
}

// ClientCAs returns the pool used to verify client certificates.
func (cm *CertificateManager) ClientCAs() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clientCA
}

// CheckExpiry returns the time left before the serving certificate expires.
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.notAfter.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.notAfter), nil
}

// RunExpiryMonitor reports the remaining validity every minute until ctx is done.
func (cm *CertificateManager) RunExpiryMonitor(ctx context.Context) error {
	ticker := time.NewTicker(certExpiryInterval)
	defer ticker.Stop()
	for {
		if remaining, err := cm.CheckExpiry(); err == nil {
			cm.metrics.RecordCertExpiry(ctx, remaining)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

// Status summarizes certificate health for the health endpoint.
func (cm *CertificateManager) Status() map[string]any {
	status := map[string]any{}

	remaining, err := cm.CheckExpiry()
	if err != nil {
		status["healthy"] = false
		status["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return status
	}

	status["time_to_expiry_hours"] = int(remaining.Hours())
	status["time_to_expiry"] = remaining.Round(time.Second).String()
	switch {
	case remaining <= 0:
		status["healthy"] = false
		status["status"] = "expired"
	case remaining <= certCriticalThreshold:
		status["healthy"] = false
		status["status"] = "critical"
	case remaining <= certWarningThreshold:
		status["healthy"] = true
		status["status"] = "warning"
	default:
		status["healthy"] = true
		status["status"] = "ok"
	}

	cm.mu.RLock()
	status["reloads"] = map[string]any{
		"count":       cm.reloads,
		"failures":    cm.reloadFailures,
		"last_reload": cm.lastReload,
		"last_error":  cm.lastError,
	}
	cm.mu.RUnlock()

	status["auto_reload"] = map[string]any{
		"enabled":               cm.cfg.AutoReload.Enabled,
		"file_watcher_enabled":  cm.cfg.AutoReload.FileWatcher.Enabled,
		"vault_watcher_enabled": cm.cfg.AutoReload.VaultWatcher.Enabled,
	}
	return status
}
