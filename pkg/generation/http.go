package generation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/edumint-ai/platform/pkg/ledger"
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
	r.HandleFunc("/generate", h.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/contents/{id}/regenerate", h.handleRegenerate).Methods(http.MethodPost)
	r.HandleFunc("/artifacts/{id}", h.handleGetArtifact).Methods(http.MethodGet)
	r.HandleFunc("/attempts", h.handleListAttempts).Methods(http.MethodGet)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Generate(r.Context(), user, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, resp)
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrContentBlocked):
		writeJSON(w, http.StatusBadRequest, resp)
	default:
		logger.Log.WithError(err).Error("generation failed")
		http.Error(w, "generation failed", http.StatusInternalServerError)
	}
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
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

	resp, err := h.service.Regenerate(r.Context(), user, contentID)
	var notApproved *models.NotApprovedError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, resp)
	case errors.Is(err, ledger.ErrAttemptNotFound), errors.Is(err, ErrArtifactNotFound):
		http.Error(w, "content not found", http.StatusNotFound)
	case errors.Is(err, ErrNotOwner):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.As(err, &notApproved):
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"error":  "content not approved",
			"status": notApproved.Status,
		})
	default:
		logger.Log.WithError(err).Error("regeneration failed")
		http.Error(w, "regeneration failed", http.StatusInternalServerError)
	}
}

func (h *Handler) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid artifact id", http.StatusBadRequest)
		return
	}
	artifact, err := h.service.GetArtifact(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			http.Error(w, "artifact not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to get artifact")
		http.Error(w, "failed to get artifact", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"artifact": artifact})
}

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	limit := parseLimit(r, 50)
	attempts, err := h.service.ListAttempts(r.Context(), user.ID, limit)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list attempts")
		http.Error(w, "failed to list attempts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": attempts})
}

// userFromRequest reads the identity headers the gateway sets from verified
// JWT claims. The backing services trust the gateway on this.
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
