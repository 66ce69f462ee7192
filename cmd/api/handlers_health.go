package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceName = "YouTube Transcript API"

// healthHandler is the basic health check
// GET /api/v1/health/
func (api *API) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
	})
}

// detailedHealthHandler reports host usage, dependency status and key settings
// GET /api/v1/health/detailed
func (api *API) detailedHealthHandler(c *gin.Context) {
	ctx := c.Request.Context()
	appInfo := gin.H{
		"name":    api.config.App.Name,
		"version": api.config.App.Version,
		"debug":   api.config.App.Debug,
	}

	system, err := api.health.System(ctx)
	if err != nil {
		api.logger.WithError(err).Warn("Failed to collect system information")
		c.JSON(http.StatusOK, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
			"app_info":  appInfo,
		})
		return
	}

	status := "healthy"
	services := gin.H{
		"output_directory":       api.health.OutputDirectory(),
		"youtube_transcript_api": "available",
		"pdf_generation":         "available",
	}
	for name, state := range api.health.Components(ctx) {
		services[name] = state
		if strings.HasPrefix(state, "unavailable") {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"timestamp":      time.Now().UTC(),
		"app_info":       appInfo,
		"system_info":    system,
		"service_status": services,
		"configuration": gin.H{
			"max_file_size":     api.config.Transcripts.MaxFileSize,
			"default_languages": api.config.Transcripts.DefaultLanguages,
			"debug_mode":        api.config.App.Debug,
		},
	})
}

// readinessHandler reports whether the service can take requests
// GET /api/v1/health/ready
func (api *API) readinessHandler(c *gin.Context) {
	ready, checks := api.health.Ready(c.Request.Context())

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":     ready,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// livenessHandler is the container liveness probe
// GET /api/v1/health/live
func (api *API) livenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// rootHandler describes the service and where its endpoints live
// GET /
func (api *API) rootHandler(c *gin.Context) {
	prefix := api.config.Server.APIPrefix
	c.JSON(http.StatusOK, gin.H{
		"name":         api.config.App.Name,
		"version":      api.config.App.Version,
		"description":  "YouTube Transcript API - Extract and convert video transcripts",
		"health_check": prefix + "/health",
		"endpoints": gin.H{
			"transcripts": prefix + "/transcripts",
			"files":       prefix + "/files",
			"health":      prefix + "/health",
		},
	})
}

// infoHandler summarizes the running configuration
// GET /info
func (api *API) infoHandler(c *gin.Context) {
	cfg := api.config
	c.JSON(http.StatusOK, gin.H{
		"application": gin.H{
			"name":    cfg.App.Name,
			"version": cfg.App.Version,
			"debug":   cfg.App.Debug,
		},
		"configuration": gin.H{
			"output_directory":  cfg.Transcripts.OutputDir,
			"max_file_size_mb":  cfg.Transcripts.MaxFileSize / (1024 * 1024),
			"default_languages": cfg.Transcripts.DefaultLanguages,
			"dispatch":          cfg.Transcripts.Dispatch,
			"task_store":        cfg.Store.Driver,
			"pdf_settings": gin.H{
				"page_size": cfg.PDF.PageSize,
				"font_size": cfg.PDF.FontSize,
				"margins":   cfg.PDF.Margins,
			},
		},
		"features": []string{
			"YouTube transcript extraction",
			"Multiple output formats (TXT, PDF, JSON)",
			"Multi-language support",
			"Background processing",
			"File management",
			"Health monitoring",
		},
	})
}
