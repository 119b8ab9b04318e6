// Package api is a stand-in for the filtered-data import server, used for
// dry runs of the bulk importer and in tests.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/bulkimport/internal/api/handler"
	"github.com/timmy/bulkimport/internal/api/middleware"
	"github.com/timmy/bulkimport/internal/logger"
)

// RouterConfig holds configuration for the stub router.
type RouterConfig struct {
	Mode       string
	Endpoint   string
	HealthPath string
	Import     *handler.ImportHandlerConfig
}

// SetupRouter configures the Gin router with the health and import routes.
func SetupRouter(cfg *RouterConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))

	importCfg := cfg.Import
	if importCfg == nil {
		importCfg = &handler.ImportHandlerConfig{}
	}

	healthHandler := handler.NewHealthHandler()
	importHandler := handler.NewImportHandler(importCfg)

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "/import-filtered-data"
	}

	r.GET(healthPath, healthHandler.Health)
	r.POST(endpoint, importHandler.Import)

	return r
}
