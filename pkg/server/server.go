// Package server starts the HTTP surface: run queries, health and metrics.
package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
	"github.com/oceanlens/enginewatch/pkg/router"
)

func InitServer(ctx context.Context, cfg *config.Config) error {
	return InitServerWithPreInitFunc(ctx, cfg, nil)
}

func InitServerWithPreInitFunc(ctx context.Context, cfg *config.Config, preInit func(ctx context.Context, cfg *config.Config) error) error {
	if preInit != nil {
		if err := preInit(ctx, cfg); err != nil {
			return errors.NewError().
				WithCode(errors.CodeInitializeError).
				WithMessage("PreInit Error").
				WithError(err)
		}
	}
	gin.SetMode(gin.ReleaseMode)
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if err := router.InitRouter(ginEngine); err != nil {
		return err
	}

	port := cfg.HttpPort
	if port == 0 {
		port = 8080
	}
	log.Infof("serving on port %d", port)
	return ginEngine.Run(fmt.Sprintf(":%d", port))
}
