package bootstrap

import (
	"context"

	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/database"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/server"

	// Register the run query routes.
	_ "github.com/oceanlens/enginewatch/pkg/api"
)

// Bootstrap loads configuration, connects the run store and starts the
// HTTP server. It blocks until the server exits.
func Bootstrap(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Tracking.PostgresDSN == "" {
		return errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessage("serving runs requires tracking.postgres_dsn")
	}
	if _, err := database.InitDefault(cfg.Tracking.PostgresDSN); err != nil {
		return err
	}
	return server.InitServer(ctx, cfg)
}
