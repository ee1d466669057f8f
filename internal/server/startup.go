package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careercoach/internal/errors"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Start serves until ctx is canceled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests. Background maintenance (limiter
// eviction, idle session pruning, certificate and secret watching) runs for
// the lifetime of the listener.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Slog().Handler(), slog.LevelWarn),
	}

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}
	s.configureKeyRotation()
	s.displayServerInfo(httpServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server",
			"address", httpServer.Addr,
			"tls_enabled", httpServer.TLSConfig != nil)

		var err error
		if httpServer.TLSConfig != nil {
			// Certificates come from TLSConfig.GetCertificate.
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
			return httpServer.Close()
		}
		s.logger.Info("Server shutdown completed successfully")
		return nil
	})

	if s.limiter != nil {
		g.Go(func() error { return s.limiter.Run(gctx) })
	}
	if ttl := s.cfg.Server.SessionIdleTimeout; ttl > 0 && s.sessions != nil {
		g.Go(func() error { return s.pruneSessions(gctx, ttl) })
	}
	if s.certs != nil {
		g.Go(func() error { return s.certs.RunExpiryMonitor(gctx) })
	}
	if s.certWatcher != nil {
		g.Go(func() error { return s.certWatcher.Run(gctx) })
	}
	for _, vw := range s.vaultWatchers {
		g.Go(func() error { return vw.Run(gctx) })
	}

	return g.Wait()
}

// pruneSessions drops idle sessions until ctx is done.
func (s *Server) pruneSessions(ctx context.Context, maxIdle time.Duration) error {
	ticker := time.NewTicker(max(maxIdle/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sessions.Prune(maxIdle)
		case <-ctx.Done():
			return nil
		}
	}
}

// configureTLS loads certificates for the server and mutual modes and sets
// up their reload sources.
func (s *Server) configureTLS(httpServer *http.Server) error {
	tlsCfg := s.cfg.Server.TLS
	switch tlsCfg.Mode {
	case "", "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tlsCfg.Mode)
	}

	cm, err := NewCertificateManager(tlsCfg, s.metrics, s.logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig, err = buildTLSConfig(tlsCfg, cm)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	s.certs = cm

	reload := tlsCfg.AutoReload
	if !reload.Enabled {
		return nil
	}

	if reload.FileWatcher.Enabled && tlsCfg.CertContent == "" {
		files := []string{tlsCfg.CertFile, tlsCfg.KeyFile}
		if tlsCfg.Mode == "mutual" {
			files = append(files, tlsCfg.CAFile)
		}
		s.certWatcher = NewCertWatcher(files, reload.FileWatcher.DebounceDelay, cm.Reload, s.logger)
	}

	if reload.VaultWatcher.Enabled {
		path := reload.VaultWatcher.SecretPath
		if path == "" {
			path = s.cfg.Vault.Secrets.TLSCerts
		}
		if s.vault == nil || path == "" {
			s.logger.Warn("Vault certificate watching requested but Vault is not configured")
			return nil
		}
		s.addVaultWatcher("tls", NewVaultWatcher(s.vault, path, reload.VaultWatcher.PollInterval,
			certificateSecretHandler(cm), s.logger))
	}
	return nil
}

// configureKeyRotation polls the Vault API key secret so keys can be
// rotated without a restart.
func (s *Server) configureKeyRotation() {
	path := s.cfg.Vault.Secrets.APIKeys
	interval := s.cfg.Vault.KeyRotationInterval
	if s.vault == nil || path == "" || interval <= 0 {
		return
	}
	s.addVaultWatcher("api_keys", NewVaultWatcher(s.vault, path, interval, s.apiKeySecretHandler(), s.logger))
}

// addVaultWatcher registers vw after recording the version already applied
// at startup.
func (s *Server) addVaultWatcher(name string, vw *VaultWatcher) {
	if err := vw.Prime(); err != nil {
		s.logger.Warn("Failed to read initial secret version from Vault", "watcher", name, "error", err)
	}
	s.vaultWatchers[name] = vw
}
