// Package api exposes the run query endpoints.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/oceanlens/enginewatch/pkg/database"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
	"github.com/oceanlens/enginewatch/pkg/model/rest"
	"github.com/oceanlens/enginewatch/pkg/router"
)

func init() {
	router.RegisterGroup(initRouter)
}

func initRouter(group *gin.RouterGroup) error {
	group.GET("runs", ListRuns)
	group.GET("runs/:id", GetRun)
	group.GET("runs/:id/metrics", GetRunMetrics)
	group.GET("runs/:id/params", GetRunParams)
	return nil
}

// ListRuns returns runs newest first, paginated by limit and offset.
func ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	runs, total, err := database.GetFacade().GetRun().ListRuns(c, limit, offset)
	if err != nil {
		log.Errorf("failed to list runs: %v", err)
		c.JSON(http.StatusInternalServerError,
			rest.ErrorResp(c, errors.CodeDatabaseError, "failed to list runs", nil))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(c, rest.NewListData(runs, int(total))))
}

// GetRun returns one run by id.
func GetRun(c *gin.Context) {
	id := c.Param("id")
	run, err := database.GetFacade().GetRun().GetRunByID(c, id)
	if err != nil {
		log.Errorf("failed to get run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError,
			rest.ErrorResp(c, errors.CodeDatabaseError, "failed to get run", nil))
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound,
			rest.ErrorResp(c, errors.RequestDataNotExisted, "run not found", nil))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(c, run))
}

// GetRunMetrics returns all metrics recorded against a run.
func GetRunMetrics(c *gin.Context) {
	id := c.Param("id")
	metrics, err := database.GetFacade().GetRun().ListMetricsByRunID(c, id)
	if err != nil {
		log.Errorf("failed to list metrics for run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError,
			rest.ErrorResp(c, errors.CodeDatabaseError, "failed to list metrics", nil))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(c, rest.NewListData(metrics, len(metrics))))
}

// GetRunParams returns all parameters recorded against a run.
func GetRunParams(c *gin.Context) {
	id := c.Param("id")
	params, err := database.GetFacade().GetRun().ListParamsByRunID(c, id)
	if err != nil {
		log.Errorf("failed to list params for run %s: %v", id, err)
		c.JSON(http.StatusInternalServerError,
			rest.ErrorResp(c, errors.CodeDatabaseError, "failed to list params", nil))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(c, rest.NewListData(params, len(params))))
}
