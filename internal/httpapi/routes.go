package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"texthighlight/internal/history"
	"texthighlight/internal/logging"
)

const (
	runIDHeader      = "X-Run-ID"
	defaultListLimit = 50
	maxListLimit     = 1000
)

type handlers struct {
	runner  Runner
	history HistoryReader
	model   string
	logger  *slog.Logger
}

// alignRequest requires the text key but accepts an empty transcript, which
// the pipeline normalizes like any other.
type alignRequest struct {
	Text      *string `json:"text"`
	AudioPath string  `json:"audio_path" binding:"required"`
}

type runSummary struct {
	ID        string  `json:"id"`
	AudioPath string  `json:"audio_path"`
	Status    bool    `json:"status"`
	Kind      string  `json:"kind,omitempty"`
	Message   string  `json:"message,omitempty"`
	Marks     int     `json:"mark_count"`
	Time      float64 `json:"time"`
	CreatedAt string  `json:"created_at"`
}

func registerRoutes(r *gin.Engine, h *handlers) {
	api := r.Group("/api")
	{
		api.GET("/health", h.handleHealth)
		api.POST("/align", h.handleAlign)
		api.GET("/runs", h.handleListRuns)
		api.GET("/runs/:id", h.handleGetRun)
	}
}

func (h *handlers) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "model": h.model})
}

func (h *handlers) handleAlign(c *gin.Context) {
	var payload alignRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondMessage(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Text == nil {
		respondMessage(c, http.StatusBadRequest, "text is required")
		return
	}
	audioPath := strings.TrimSpace(payload.AudioPath)
	if audioPath == "" {
		respondMessage(c, http.StatusBadRequest, "audio_path is required")
		return
	}

	run := h.runner.Run(c.Request.Context(), *payload.Text, audioPath)
	c.Header(runIDHeader, run.ID)
	c.JSON(http.StatusOK, run.Result)
}

func (h *handlers) handleListRuns(c *gin.Context) {
	if h.history == nil {
		respondMessage(c, http.StatusNotFound, "run history is disabled")
		return
	}
	limit := defaultListLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondMessage(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxListLimit)
	}
	entries, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed", logging.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]runSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) handleGetRun(c *gin.Context) {
	if h.history == nil {
		respondMessage(c, http.StatusNotFound, "run history is disabled")
		return
	}
	entry, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			respondMessage(c, http.StatusNotFound, "run not found")
			return
		}
		h.logger.Error("get run failed", logging.Error(err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":    summarize(*entry),
		"result": entry.Result,
	})
}

func summarize(e history.Entry) runSummary {
	return runSummary{
		ID:        e.ID,
		AudioPath: e.AudioPath,
		Status:    e.Status,
		Kind:      e.Kind,
		Message:   e.Message,
		Marks:     e.MarkCount,
		Time:      e.Elapsed,
		CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
