package moderation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/moderation/pending", h.handleListPending).Methods(http.MethodGet)
	r.HandleFunc("/moderation/{id}/request", h.handleRequestReview).Methods(http.MethodPost)
	r.HandleFunc("/moderation/{id}/decide", h.handleDecide).Methods(http.MethodPost)
	r.HandleFunc("/moderation/{id}/approved", h.handleFetchApproved).Methods(http.MethodGet)
}

func (h *Handler) handleRequestReview(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	contentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	record, err := h.service.RequestReview(r.Context(), user, contentID)
	if err != nil {
		writeModerationError(w, err, "failed to request review")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"moderation": record})
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	contentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	var req models.DecideModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Decision == "" {
		http.Error(w, "decision is required", http.StatusBadRequest)
		return
	}

	record, err := h.service.Decide(r.Context(), user, contentID, req)
	if err != nil {
		writeModerationError(w, err, "failed to record decision")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"moderation": record})
}

func (h *Handler) handleFetchApproved(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	contentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	content, err := h.service.FetchApproved(r.Context(), user, contentID)
	if err != nil {
		writeModerationError(w, err, "failed to fetch approved content")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	limit := parseLimit(r, 50)
	records, err := h.service.ListPending(r.Context(), user, limit)
	if err != nil {
		writeModerationError(w, err, "failed to list pending reviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": records})
}

func writeModerationError(w http.ResponseWriter, err error, fallback string) {
	var notApproved *models.NotApprovedError
	switch {
	case errors.Is(err, ErrContentNotFound), errors.Is(err, ErrArtifactNotFound):
		http.Error(w, "content not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotOwner):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrInvalidDecision), errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &notApproved):
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"error":  "content not approved",
			"status": notApproved.Status,
		})
	default:
		logger.Log.WithError(err).Error(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

func userFromRequest(r *http.Request) (models.User, bool) {
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return models.User{}, false
	}
	orgID, err := uuid.Parse(r.Header.Get("X-Org-ID"))
	if err != nil {
		return models.User{}, false
	}
	return models.User{
		ID:             userID,
		OrganizationID: orgID,
		Email:          r.Header.Get("X-User-Email"),
		Name:           r.Header.Get("X-User-Name"),
		Role:           r.Header.Get("X-User-Role"),
	}, true
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
