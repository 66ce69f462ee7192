package main

import (
	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/middleware"
)

func setupRouter(api *API) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.CustomRecovery(api.recoveryHandler))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(api.logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(api.config.Server.AllowedOrigins))

	router.GET("/", api.rootHandler)
	router.GET("/info", api.infoHandler)

	v1 := router.Group(api.config.Server.APIPrefix)

	// Health endpoints stay public for probes
	health := v1.Group("/health")
	{
		health.GET("/", api.healthHandler)
		health.GET("/detailed", api.detailedHealthHandler)
		health.GET("/ready", api.readinessHandler)
		health.GET("/live", api.livenessHandler)
	}

	protected := v1.Group("")
	if api.auth != nil {
		protected.Use(api.auth.Middleware())
	}

	// Routes that call out to YouTube share one quota per client
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if api.limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{middleware.RateLimit(api.limiter, api.logger), h}
	}

	transcripts := protected.Group("/transcripts")
	{
		transcripts.POST("/", limited(api.createTranscriptHandler)...)
		transcripts.POST("/async", limited(api.createTranscriptAsyncHandler)...)
		transcripts.POST("/quick", limited(api.quickTranscriptHandler)...)
		transcripts.GET("/info/video", limited(api.videoInfoHandler)...)
		transcripts.GET("/", api.listTranscriptsHandler)
		transcripts.GET("/:task_id", api.getTranscriptHandler)
		transcripts.GET("/:task_id/status", api.getTaskStatusHandler)
		transcripts.DELETE("/:task_id", api.deleteTranscriptHandler)
	}

	files := protected.Group("/files")
	{
		files.GET("/", api.listFilesHandler)
		files.GET("/stats", api.fileStatsHandler)
		files.POST("/cleanup", api.cleanupFilesHandler)
		files.GET("/:filename", api.downloadFileHandler)
		files.GET("/:filename/info", api.fileInfoHandler)
		files.DELETE("/:filename", api.deleteFileHandler)
	}

	return router
}
