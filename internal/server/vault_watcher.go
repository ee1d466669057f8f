package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"careercoach/internal/config"
	"careercoach/internal/errors"
)

const defaultVaultPollInterval = 5 * time.Minute

// VaultClientInterface defines the interface for Vault operations
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// SecretHandler applies a new version of a watched secret.
type SecretHandler func(ctx context.Context, secret *config.VaultSecret) error

// VaultWatcher polls a KVv2 secret and calls its handler whenever the
// version grows.
type VaultWatcher struct {
	client   VaultClientInterface
	path     string
	interval time.Duration
	handle   SecretHandler
	logger   *errors.Logger

	mu          sync.RWMutex
	running     bool
	lastVersion int64
	lastCheck   time.Time
	lastError   string
}

// NewVaultWatcher creates a watcher for path. A zero interval polls every
// five minutes.
func NewVaultWatcher(client VaultClientInterface, path string, interval time.Duration, handle SecretHandler, logger *errors.Logger) *VaultWatcher {
	if interval <= 0 {
		interval = defaultVaultPollInterval
	}
	return &VaultWatcher{
		client:   client,
		path:     path,
		interval: interval,
		handle:   handle,
		logger:   logger.With("component", "vault_watcher", "secret_path", path),
	}
}

// Prime records the current version without applying it, for secrets that
// were already applied at startup.
func (vw *VaultWatcher) Prime() error {
	secret, err := vw.client.GetSecretV2(vw.path)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return fmt.Errorf("secret not found at %s", vw.path)
	}
	vw.mu.Lock()
	vw.lastVersion = secret.Version
	vw.mu.Unlock()
	return nil
}

// Run polls until ctx is done.
func (vw *VaultWatcher) Run(ctx context.Context) error {
	vw.setRunning(true)
	defer vw.setRunning(false)
	vw.logger.Info("Vault watcher started", "poll_interval", vw.interval)

	ticker := time.NewTicker(vw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := vw.poll(ctx); err != nil {
				vw.logger.LogError(err, "Failed to apply secret from Vault")
			}
		case <-ctx.Done():
			vw.logger.Info("Vault watcher stopped")
			return nil
		}
	}
}

func (vw *VaultWatcher) setRunning(running bool) {
	vw.mu.Lock()
	vw.running = running
	vw.mu.Unlock()
}

// poll applies the secret if its version changed since the last poll.
func (vw *VaultWatcher) poll(ctx context.Context) error {
	secret, changed, err := vw.checkForUpdates()
	if err == nil && changed {
		vw.logger.Info("Vault secret changed", "version", secret.Version)
		err = vw.handle(ctx, secret)
	}

	vw.mu.Lock()
	vw.lastCheck = time.Now()
	vw.lastError = ""
	if err != nil {
		vw.lastError = err.Error()
	}
	vw.mu.Unlock()
	return err
}

// checkForUpdates reads the secret and reports whether its version grew.
func (vw *VaultWatcher) checkForUpdates() (*config.VaultSecret, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret not found at %s", vw.path)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return secret, true, nil
	}
	return secret, false, nil
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.interval.String(),
		"secret_path":   vw.path,
		"last_version":  vw.lastVersion,
		"last_check":    vw.lastCheck,
		"last_error":    vw.lastError,
	}
}

// certificateSecretHandler installs "cert", "key" and optional "ca" PEM
// values into cm.
func certificateSecretHandler(cm *CertificateManager) SecretHandler {
	return func(ctx context.Context, secret *config.VaultSecret) error {
		certPEM, err := secret.String("cert")
		if err != nil {
			return err
		}
		keyPEM, err := secret.String("key")
		if err != nil {
			return err
		}
		caPEM, _ := secret.String("ca")
		return cm.ReloadPEM(ctx, []byte(certPEM), []byte(keyPEM), []byte(caPEM))
	}
}

// apiKeySecretHandler replaces the accepted API keys with the comma
// separated "keys" value. An empty list is rejected so a bad write cannot
// silently turn authentication off.
func (s *Server) apiKeySecretHandler() SecretHandler {
	return func(_ context.Context, secret *config.VaultSecret) error {
		raw, err := secret.String("keys")
		if err != nil {
			return err
		}
		keys := config.SplitKeys(raw)
		if len(keys) == 0 {
			return fmt.Errorf("secret %q holds no API keys", "keys")
		}
		s.setAPIKeys(keys)
		s.logger.Info("API keys rotated from Vault", "keys", len(keys), "version", secret.Version)
		return nil
	}
}
