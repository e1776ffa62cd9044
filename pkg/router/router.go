package router

import (
	"github.com/gin-gonic/gin"
	"github.com/oceanlens/enginewatch/pkg/router/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	groupRegisters []GroupRegister
)

func RegisterGroup(group GroupRegister) {
	groupRegisters = append(groupRegisters, group)
}

func InitRouter(engine *gin.Engine) error {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := engine.Group("/api/v1")
	g.Use(middleware.HandleLogging())

	for _, group := range groupRegisters {
		err := group(g)
		if err != nil {
			return err
		}
	}
	return nil
}

type GroupRegister func(group *gin.RouterGroup) error
