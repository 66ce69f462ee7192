package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/youtube"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// TranscriptRequest is the body of the create endpoints
type TranscriptRequest struct {
	URL                string   `json:"url" binding:"required"`
	Format             string   `json:"format"`
	Languages          []string `json:"languages" binding:"omitempty,dive,min=1,max=10"`
	PreserveFormatting bool     `json:"preserve_formatting"`
	CustomFilename     string   `json:"custom_filename" binding:"omitempty,max=100"`
}

// QuickTranscriptRequest is the body of the quick endpoint
type QuickTranscriptRequest struct {
	URL                string   `json:"url" binding:"required"`
	Languages          []string `json:"languages" binding:"omitempty,dive,min=1,max=10"`
	PreserveFormatting bool     `json:"preserve_formatting"`
}

// AcceptedResponse is returned when a task is queued
type AcceptedResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QuickTranscriptResponse carries transcript text without any files
type QuickTranscriptResponse struct {
	VideoID         string  `json:"video_id"`
	URL             string  `json:"url"`
	Transcript      string  `json:"transcript"`
	Language        string  `json:"language"`
	IsGenerated     bool    `json:"is_generated"`
	WordCount       int     `json:"word_count"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// VideoInfoResponse describes a video and its caption tracks
type VideoInfoResponse struct {
	VideoInfo      models.VideoReference      `json:"video_info"`
	TranscriptInfo models.VideoTranscriptInfo `json:"transcript_info"`
}

func (r TranscriptRequest) options() (models.TaskOptions, error) {
	opts := models.TaskOptions{
		Format:             models.FileFormatBoth,
		Languages:          r.Languages,
		PreserveFormatting: r.PreserveFormatting,
		CustomFilename:     r.CustomFilename,
	}
	if r.Format != "" {
		format, err := models.ParseFileFormat(r.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}
	return opts, nil
}

// bindTranscriptRequest parses the body and the video URL. It writes the
// error reply itself and reports false when the request is unusable.
func (api *API) bindTranscriptRequest(c *gin.Context) (models.VideoReference, models.TaskOptions, bool) {
	var req TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return models.VideoReference{}, models.TaskOptions{}, false
	}

	opts, err := req.options()
	if err != nil {
		validationError(c, err.Error())
		return models.VideoReference{}, models.TaskOptions{}, false
	}

	ref, err := youtube.ParseVideoURL(req.URL)
	if err != nil {
		api.respondError(c, err)
		return models.VideoReference{}, models.TaskOptions{}, false
	}
	return ref, opts, true
}

// createTranscriptHandler fetches and exports a transcript before replying
// POST /api/v1/transcripts/
func (api *API) createTranscriptHandler(c *gin.Context) {
	ref, opts, ok := api.bindTranscriptRequest(c)
	if !ok {
		return
	}

	t, err := api.tasks.Create(c.Request.Context(), ref, opts)
	if err != nil {
		api.respondError(c, err)
		return
	}

	// Processing failures are recorded on the task, not returned
	processed, err := api.tasks.Process(c.Request.Context(), t.ID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	api.logger.WithTaskID(t.ID).WithVideoID(ref.VideoID).Infof("Created transcript, status %s", processed.Status)
	c.JSON(http.StatusCreated, processed)
}

// createTranscriptAsyncHandler records a task and hands it to the dispatcher
// POST /api/v1/transcripts/async
func (api *API) createTranscriptAsyncHandler(c *gin.Context) {
	ref, opts, ok := api.bindTranscriptRequest(c)
	if !ok {
		return
	}

	t, err := api.tasks.Create(c.Request.Context(), ref, opts)
	if err != nil {
		api.respondError(c, err)
		return
	}

	if err := api.dispatcher.Dispatch(c.Request.Context(), t.ID); err != nil {
		// The task stays pending and can be resumed later
		api.logger.WithTaskID(t.ID).WithError(err).Error("Failed to dispatch task")
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, AcceptedResponse{
		TaskID:  t.ID,
		Status:  "accepted",
		Message: "Transcript processing started",
	})
}

// getTranscriptHandler returns the full task record
// GET /api/v1/transcripts/:task_id
func (api *API) getTranscriptHandler(c *gin.Context) {
	t, err := api.tasks.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// getTaskStatusHandler returns the polling view of a task
// GET /api/v1/transcripts/:task_id/status
func (api *API) getTaskStatusHandler(c *gin.Context) {
	t, err := api.tasks.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.StatusView())
}

// listTranscriptsHandler lists tasks, newest first
// GET /api/v1/transcripts/?skip=0&limit=50
func (api *API) listTranscriptsHandler(c *gin.Context) {
	skip, limit, ok := pagination(c)
	if !ok {
		return
	}

	tasks, err := api.tasks.List(c.Request.Context(), skip+limit)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page(tasks, skip, limit))
}

// deleteTranscriptHandler removes a task and its files
// DELETE /api/v1/transcripts/:task_id
func (api *API) deleteTranscriptHandler(c *gin.Context) {
	taskID := c.Param("task_id")

	deleted, err := api.tasks.Delete(c.Request.Context(), taskID)
	if err != nil {
		api.respondError(c, err)
		return
	}
	if !deleted {
		api.respondError(c, errTaskNotFound(taskID))
		return
	}

	api.logger.WithTaskID(taskID).Info("Deleted transcript task")
	c.Status(http.StatusNoContent)
}

// videoInfoHandler lists the caption tracks of a video
// GET /api/v1/transcripts/info/video?url=...
func (api *API) videoInfoHandler(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		validationError(c, "url query parameter is required")
		return
	}

	ref, err := youtube.ParseVideoURL(rawURL)
	if err != nil {
		api.respondError(c, err)
		return
	}

	tracks, err := api.fetcher.ListTracks(c.Request.Context(), ref.VideoID)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, VideoInfoResponse{
		VideoInfo: ref,
		TranscriptInfo: models.VideoTranscriptInfo{
			VideoID:              ref.VideoID,
			AvailableTranscripts: tracks,
		},
	})
}

// quickTranscriptHandler returns transcript text without creating a task
// POST /api/v1/transcripts/quick
func (api *API) quickTranscriptHandler(c *gin.Context) {
	var req QuickTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	ref, err := youtube.ParseVideoURL(req.URL)
	if err != nil {
		api.respondError(c, err)
		return
	}

	languages := req.Languages
	if len(languages) == 0 {
		languages = api.config.Transcripts.DefaultLanguages
	}

	tr, err := api.fetcher.Fetch(c.Request.Context(), ref, languages, req.PreserveFormatting)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, QuickTranscriptResponse{
		VideoID:         ref.VideoID,
		URL:             req.URL,
		Transcript:      tr.FullText,
		Language:        tr.Language,
		IsGenerated:     tr.IsGenerated,
		WordCount:       tr.WordCount,
		DurationSeconds: tr.DurationSeconds,
	})
}

// pagination reads skip and limit, replying 422 when either is out of range
func pagination(c *gin.Context) (skip, limit int, ok bool) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		validationError(c, "skip must be a non-negative integer")
		return 0, 0, false
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 || limit > maxPageLimit {
		validationError(c, "limit must be between 1 and 100")
		return 0, 0, false
	}
	return skip, limit, true
}

// page returns items[skip:skip+limit], clamped to the slice
func page[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}
