package httpd

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := getIntQueryParam(r, "limit", 20)
	offset := getIntQueryParam(r, "offset", 0)

	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ctx := r.Context()
	resp, err := h.submissionService.ListSubmissions(ctx, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list submissions")
		writeError(w, http.StatusInternalServerError, "Failed to list submissions")
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid submission ID")
		return
	}

	ctx := r.Context()
	sub, err := h.submissionService.GetSubmission(ctx, id)
	if err != nil {
		h.logger.Error().Err(err).Int64("submission_id", id).Msg("Failed to get submission")
		writeError(w, http.StatusInternalServerError, "Failed to get submission")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}

	writeSuccess(w, sub)
}
