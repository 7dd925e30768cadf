package routes

import (
	"encoding/json"
	"net/http"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type AlertsHandler struct {
	db *gorm.DB
}

type Alert struct {
	ID        string                 `json:"id"`
	Tool      string                 `json:"tool"`
	Title     string                 `json:"title"`
	ErrorType string                 `json:"errorType"`
	Status    string                 `json:"status"`
	Flags     map[string]interface{} `json:"flags"`
	CreatedAt string                 `json:"createdAt"`
}

type AlertSummary struct {
	Blocked  int `json:"blocked"`
	Failed   int `json:"failed"`
	Declined int `json:"declined"`
}

type AlertsResponse struct {
	Summary AlertSummary `json:"summary"`
	Items   []Alert      `json:"items"`
}

func NewAlertsHandler(db *gorm.DB) *AlertsHandler {
	return &AlertsHandler{db: db}
}

func (h *AlertsHandler) Register(r *mux.Router) {
	r.HandleFunc("/alerts", h.handleList).Methods(http.MethodGet)
}

func (h *AlertsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summary := AlertSummary{}
	if err := h.db.Raw(`
		SELECT
			SUM(CASE WHEN error_type = 'content_policy_violation' THEN 1 ELSE 0 END) AS blocked,
			SUM(CASE WHEN error_type = 'generation_failure' THEN 1 ELSE 0 END) AS failed,
			SUM(CASE WHEN approval_status = 'declined' THEN 1 ELSE 0 END) AS declined
		FROM ai_tools_metrics
		WHERE created_at > NOW() - INTERVAL '7 days'
	`).Scan(&summary).Error; err != nil {
		logger.Log.WithError(err).Error("failed to summarize alerts")
		http.Error(w, "failed to fetch alerts", http.StatusInternalServerError)
		return
	}

	var rows []struct {
		ID        string `gorm:"column:id"`
		Tool      string `gorm:"column:tool"`
		Title     string `gorm:"column:title"`
		ErrorType string `gorm:"column:error_type"`
		Status    string `gorm:"column:approval_status"`
		Flags     []byte `gorm:"column:flags"`
		CreatedAt string `gorm:"column:created_at"`
	}

	if err := h.db.Raw(`
		SELECT id, tool, title, COALESCE(error_type, '') AS error_type, approval_status, flags,
			TO_CHAR(created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ') AS created_at
		FROM ai_tools_metrics
		WHERE flagged OR error_type <> ''
		ORDER BY created_at DESC
		LIMIT 25
	`).Scan(&rows).Error; err != nil {
		logger.Log.WithError(err).Error("failed to load alert rows")
		http.Error(w, "failed to fetch alerts", http.StatusInternalServerError)
		return
	}

	items := make([]Alert, 0, len(rows))
	for _, row := range rows {
		flagMap := map[string]interface{}{}
		if len(row.Flags) > 0 {
			if err := json.Unmarshal(row.Flags, &flagMap); err != nil {
				flagMap = map[string]interface{}{"raw": string(row.Flags)}
			}
		}

		items = append(items, Alert{
			ID:        row.ID,
			Tool:      row.Tool,
			Title:     row.Title,
			ErrorType: row.ErrorType,
			Status:    row.Status,
			Flags:     flagMap,
			CreatedAt: row.CreatedAt,
		})
	}

	writeJSON(w, AlertsResponse{Summary: summary, Items: items})
}
