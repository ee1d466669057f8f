package cli

import (
	"context"

	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/session"

	"github.com/spf13/cobra"
)

// sessionRun carries what a session-scoped command needs.
type sessionRun struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *errors.Logger
	session *session.Session
}

// withSession opens the --session session, runs fn with the session's
// usage tracker in the context and persists the session afterwards.
func withSession(cmd *cobra.Command, fn func(run sessionRun) error) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	manager, err := session.NewManager(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(context.WithoutCancel(ctx)); err != nil {
			logger.LogError(err, "Failed to save session data")
		}
	}()

	sess, _, err := manager.Get(ctx, rootFlags.session)
	if err != nil {
		return err
	}
	defer sess.Release()

	return fn(sessionRun{
		ctx:     sess.Context(ctx),
		cfg:     cfg,
		logger:  logger.With("session_id", sess.ID),
		session: sess,
	})
}
