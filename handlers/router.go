package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds what NewRouter wires together
type RouterConfig struct {
	Cases          *CaseHandler
	Exports        *ExportHandler
	Runs           *RunHandler // nil when no run ledger is configured
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with every API route
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(gin.Recovery(), RequestLogger(cfg.Logger), CORS(cfg.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.GET("/cases/:citation", cfg.Cases.GetCase)
		api.GET("/cases/:citation/analysis", cfg.Cases.GetAnalysis)
		api.GET("/cases/:citation/digest", cfg.Cases.GetDigest)
		api.POST("/cases/:citation/chat", cfg.Cases.Chat)
		api.POST("/cases/:citation/analysis/export", cfg.Exports.ExportAnalysis)

		api.GET("/views/:id", cfg.Cases.GetView)
		api.DELETE("/views/:id", cfg.Cases.DeleteView)

		api.GET("/exports/*path", cfg.Exports.Download)
		api.DELETE("/exports/*path", cfg.Exports.Delete)

		if cfg.Runs != nil {
			api.GET("/cases/:citation/runs", cfg.Runs.ListCaseRuns)
			api.GET("/runs/:id", cfg.Runs.GetRun)
		}
	}
	return r
}
