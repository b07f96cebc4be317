package httpd

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Webhook accepts the chat platform's update payload. The token segment
// of the path must match the configured bot token; anything else is
// rejected without reading the body.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookToken)) != 1 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode webhook update")
		writeError(w, http.StatusBadRequest, "Invalid update payload")
		return
	}

	h.sink.Enqueue(update)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
