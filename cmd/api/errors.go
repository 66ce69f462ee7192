package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/export"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/storage"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/youtube"
)

type errorKind struct {
	target error
	status int
	name   string
}

// errorKinds maps domain errors to HTTP replies, first match wins
var errorKinds = []errorKind{
	{youtube.ErrInvalidURL, http.StatusBadRequest, "InvalidURL"},
	{youtube.ErrVideoNotFound, http.StatusNotFound, "VideoNotFound"},
	{youtube.ErrTranscriptsDisabled, http.StatusNotFound, "TranscriptsDisabled"},
	{youtube.ErrNoTranscriptFound, http.StatusNotFound, "TranscriptNotAvailable"},
	{youtube.ErrTranscriptTooLong, http.StatusUnprocessableEntity, "TranscriptTooLong"},
	{task.ErrTaskNotFound, http.StatusNotFound, "TaskNotFound"},
	{task.ErrAlreadyProcessed, http.StatusConflict, "AlreadyProcessed"},
	{task.ErrPoolBusy, http.StatusServiceUnavailable, "ServiceUnavailable"},
	{task.ErrPoolClosed, http.StatusServiceUnavailable, "ServiceUnavailable"},
	{storage.ErrFileNotFound, http.StatusNotFound, "FileNotFound"},
	{export.ErrFileProcessing, http.StatusInternalServerError, "FileProcessing"},
}

// respondError writes the reply for err. Unknown errors become a generic 500
// whose message carries the detail only in debug mode.
func (api *API) respondError(c *gin.Context, err error) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			middleware.AbortWithError(c, kind.status, kind.name, err.Error())
			return
		}
	}

	api.logger.WithError(err).Errorf("Unexpected error handling %s %s", c.Request.Method, c.Request.URL.Path)
	message := "An unexpected error occurred"
	if api.config.App.Debug {
		message = err.Error()
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, "InternalServerError", message)
}

func validationError(c *gin.Context, message string) {
	middleware.AbortWithError(c, http.StatusUnprocessableEntity, "ValidationError", message)
}

func badRequest(c *gin.Context, message string) {
	middleware.AbortWithError(c, http.StatusBadRequest, "BadRequest", message)
}

// recoveryHandler renders panics like any other internal error
func (api *API) recoveryHandler(c *gin.Context, recovered interface{}) {
	api.logger.Errorf("Recovered from panic: %v", recovered)
	message := "An unexpected error occurred"
	if api.config.App.Debug {
		message = fmt.Sprint(recovered)
	}
	middleware.AbortWithError(c, http.StatusInternalServerError, "InternalServerError", message)
}

func errTaskNotFound(taskID string) error {
	return fmt.Errorf("%w: %s", task.ErrTaskNotFound, taskID)
}
