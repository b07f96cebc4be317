package httpd

import (
	"net/http"
	"time"

	"github.com/RubachokBoss/originality-bot/internal/models"
)

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("originality-bot is running"))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.HealthCheckResponse{
		Status:    "healthy",
		Service:   "originality-bot",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.submissionService.GetStats(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get corpus stats")
		writeError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	writeSuccess(w, stats)
}
