package httpd

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/RubachokBoss/originality-bot/internal/service"
	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// UpdateSink receives decoded Telegram updates from the webhook endpoint.
type UpdateSink interface {
	Enqueue(update tgbotapi.Update)
}

type Handler struct {
	submissionService service.SubmissionService
	sink              UpdateSink
	webhookToken      string
	logger            zerolog.Logger
}

func NewHandler(
	submissionService service.SubmissionService,
	sink UpdateSink,
	webhookToken string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		submissionService: submissionService,
		sink:              sink,
		webhookToken:      webhookToken,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	// Plain-text liveness probe at the root.
	router.Get("/", h.Root)
	router.Get("/health", h.HealthCheck)
	router.Get("/stats", h.GetStats)

	// Telegram posts updates here; the token in the path is the secret.
	router.Post("/webhook/{token}", h.Webhook)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/submissions", func(r chi.Router) {
			r.Get("/", h.ListSubmissions)
			r.Get("/{id}", h.GetSubmission)
		})
	})
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
