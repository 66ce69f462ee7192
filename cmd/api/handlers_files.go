package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/export"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/storage"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const defaultCleanupDays = 7

// CleanupResponse reports a manual cleanup run
type CleanupResponse struct {
	DeletedFiles int    `json:"deleted_files"`
	DaysOld      int    `json:"days_old"`
	Message      string `json:"message"`
}

// listFilesHandler lists exported files, newest first
// GET /api/v1/files/?skip=0&limit=50&format=txt
func (api *API) listFilesHandler(c *gin.Context) {
	skip, limit, ok := pagination(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.Query("format"))
	switch models.FileFormat(format) {
	case "", models.FileFormatTXT, models.FileFormatPDF, models.FileFormatJSON:
	default:
		badRequest(c, "format must be one of txt, pdf, json")
		return
	}

	files, err := api.files.List()
	if err != nil {
		api.respondError(c, err)
		return
	}

	if format != "" {
		filtered := make([]models.FileInfo, 0, len(files))
		for _, f := range files {
			if strings.HasSuffix(f.Filename, "."+format) {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}

	c.JSON(http.StatusOK, page(files, skip, limit))
}

// downloadFileHandler serves a file as an attachment
// GET /api/v1/files/:filename
func (api *API) downloadFileHandler(c *gin.Context) {
	filename := c.Param("filename")

	path, ok := api.files.Get(filename)
	if !ok {
		api.respondError(c, fileNotFound(filename))
		return
	}

	c.Header("Content-Type", storage.ContentType(path))
	c.FileAttachment(path, filename)
}

// deleteFileHandler removes a single file
// DELETE /api/v1/files/:filename
func (api *API) deleteFileHandler(c *gin.Context) {
	filename := c.Param("filename")

	path, ok := api.files.Get(filename)
	if !ok {
		api.respondError(c, fileNotFound(filename))
		return
	}

	deleted, err := api.files.Delete(path)
	if err != nil {
		api.respondError(c, fmt.Errorf("%w: %v", export.ErrFileProcessing, err))
		return
	}
	if !deleted {
		api.respondError(c, fileNotFound(filename))
		return
	}

	api.logger.Infof("Deleted file: %s", filename)
	c.Status(http.StatusNoContent)
}

// fileInfoHandler returns size, timestamps and access details of a file
// GET /api/v1/files/:filename/info
func (api *API) fileInfoHandler(c *gin.Context) {
	filename := c.Param("filename")

	info, err := api.files.Info(filename)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			err = fileNotFound(filename)
		}
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// cleanupFilesHandler deletes files older than days_old days
// POST /api/v1/files/cleanup?days_old=7
func (api *API) cleanupFilesHandler(c *gin.Context) {
	daysOld, err := strconv.Atoi(c.DefaultQuery("days_old", strconv.Itoa(defaultCleanupDays)))
	if err != nil {
		validationError(c, "days_old must be an integer")
		return
	}
	if daysOld < 1 {
		badRequest(c, "days_old must be at least 1")
		return
	}

	deleted, err := api.files.Cleanup(daysOld)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.logger.Infof("Cleaned up %d files older than %d days", deleted, daysOld)
	c.JSON(http.StatusOK, CleanupResponse{
		DeletedFiles: deleted,
		DaysOld:      daysOld,
		Message:      fmt.Sprintf("Successfully deleted %d files", deleted),
	})
}

// fileStatsHandler summarizes the output directory
// GET /api/v1/files/stats
func (api *API) fileStatsHandler(c *gin.Context) {
	stats, err := api.files.Stats()
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func fileNotFound(filename string) error {
	return fmt.Errorf("%w: %s", storage.ErrFileNotFound, filename)
}
