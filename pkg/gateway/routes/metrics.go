package routes

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/observability/metrics"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type MetricsHandler struct {
	db *gorm.DB
}

type OverviewMetrics struct {
	GenerationsLastHour int     `json:"generationsLastHour"`
	BlockedToday        int     `json:"blockedToday"`
	PendingReviews      int     `json:"pendingReviews"`
	TokensToday         int     `json:"tokensToday"`
	SpendToday          float64 `json:"spendToday"`
	AvgOutputBytes      float64 `json:"avgOutputBytes"`
}

func NewMetricsHandler(db *gorm.DB) *MetricsHandler {
	return &MetricsHandler{db: db}
}

func (h *MetricsHandler) Register(r *mux.Router) {
	r.HandleFunc("/metrics/overview", h.handleOverview).Methods(http.MethodGet)
	r.HandleFunc("/metrics/usage", h.handleUsage).Methods(http.MethodGet)
}

// RegisterPrometheus exposes the process counters in text exposition format.
func RegisterPrometheus(r *mux.Router) {
	r.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)
}

func (h *MetricsHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.collectOverview()
	if err != nil {
		logger.Log.WithError(err).Error("failed to collect metrics")
		http.Error(w, "failed to collect metrics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, overview)
}

func (h *MetricsHandler) collectOverview() (OverviewMetrics, error) {
	overview := OverviewMetrics{}

	var generations sql.NullInt64
	if err := h.db.Raw(`
		SELECT COUNT(*)
		FROM ai_tools_metrics
		WHERE created_at > NOW() - INTERVAL '1 hour' AND status_code = 200
	`).Scan(&generations).Error; err != nil {
		return overview, err
	}
	if generations.Valid {
		overview.GenerationsLastHour = int(generations.Int64)
	}

	var blocked sql.NullInt64
	if err := h.db.Raw(`
		SELECT COUNT(*)
		FROM ai_tools_metrics
		WHERE error_type = 'content_policy_violation' AND DATE(created_at) = CURRENT_DATE
	`).Scan(&blocked).Error; err != nil {
		return overview, err
	}
	if blocked.Valid {
		overview.BlockedToday = int(blocked.Int64)
	}

	var pending sql.NullInt64
	if err := h.db.Raw(`
		SELECT COUNT(*)
		FROM ai_tools_metrics
		WHERE approval_status = 'pending'
	`).Scan(&pending).Error; err != nil {
		return overview, err
	}
	if pending.Valid {
		overview.PendingReviews = int(pending.Int64)
	}

	var tokens sql.NullInt64
	if err := h.db.Raw(`
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM ai_tools_metrics
		WHERE DATE(created_at) = CURRENT_DATE
	`).Scan(&tokens).Error; err != nil {
		return overview, err
	}
	if tokens.Valid {
		overview.TokensToday = int(tokens.Int64)
	}

	var spend sql.NullFloat64
	if err := h.db.Raw(`
		SELECT COALESCE(SUM(price), 0)
		FROM ai_tools_metrics
		WHERE DATE(created_at) = CURRENT_DATE
	`).Scan(&spend).Error; err != nil {
		return overview, err
	}
	if spend.Valid {
		overview.SpendToday = spend.Float64
	}

	var avgOutput sql.NullFloat64
	if err := h.db.Raw(`
		SELECT AVG(output_bytes)
		FROM ai_tools_metrics
		WHERE created_at > NOW() - INTERVAL '1 day' AND status_code = 200
	`).Scan(&avgOutput).Error; err != nil {
		return overview, err
	}
	if avgOutput.Valid {
		overview.AvgOutputBytes = avgOutput.Float64
	}

	return overview, nil
}

type UsagePoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Generations int       `json:"generations"`
	Tokens      int       `json:"tokens"`
}

func (h *MetricsHandler) handleUsage(w http.ResponseWriter, r *http.Request) {
	var rows []struct {
		Bucket      time.Time     `gorm:"column:bucket"`
		Generations sql.NullInt64 `gorm:"column:generations"`
		Tokens      sql.NullInt64 `gorm:"column:tokens"`
	}

	if err := h.db.WithContext(r.Context()).Raw(`
		SELECT
			date_trunc('hour', created_at) AS bucket,
			COUNT(*) AS generations,
			COALESCE(SUM(total_tokens), 0) AS tokens
		FROM ai_tools_metrics
		WHERE created_at > NOW() - INTERVAL '24 hour'
		GROUP BY bucket
		ORDER BY bucket ASC
	`).Scan(&rows).Error; err != nil {
		logger.Log.WithError(err).Error("failed to load usage series")
		http.Error(w, "failed to load usage series", http.StatusInternalServerError)
		return
	}

	points := make([]UsagePoint, 0, len(rows))
	for _, row := range rows {
		point := UsagePoint{Timestamp: row.Bucket}
		if row.Generations.Valid {
			point.Generations = int(row.Generations.Int64)
		}
		if row.Tokens.Valid {
			point.Tokens = int(row.Tokens.Int64)
		}
		points = append(points, point)
	}

	writeJSON(w, points)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Error("failed to write json response")
	}
}
