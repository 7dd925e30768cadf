package notify

import (
	"context"
	"fmt"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Directory resolves the moderator to nudge for an organization.
type Directory interface {
	FirstModerator(ctx context.Context, orgID uuid.UUID) (models.User, error)
}

// Reminder emails each organization's moderator a digest of content that is
// still waiting for review. Scheduled via cron from the notifier service.
type Reminder struct {
	db         *gorm.DB
	directory  Directory
	sender     Sender
	appBaseURL string
}

func NewReminder(db *gorm.DB, directory Directory, sender Sender, appBaseURL string) *Reminder {
	return &Reminder{
		db:         db,
		directory:  directory,
		sender:     sender,
		appBaseURL: appBaseURL,
	}
}

func (r *Reminder) Run(ctx context.Context) {
	var rows []struct {
		OrganizationID uuid.UUID `gorm:"column:organization_id"`
		Pending        int       `gorm:"column:pending"`
		OldestTitle    string    `gorm:"column:oldest_title"`
	}

	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			organization_id,
			COUNT(*) AS pending,
			(ARRAY_AGG(title ORDER BY review_asked_at ASC))[1] AS oldest_title
		FROM ai_tools_metrics
		WHERE approval_status = 'pending'
		GROUP BY organization_id
	`).Scan(&rows).Error; err != nil {
		logger.Log.WithError(err).Error("failed to load pending review digest")
		return
	}

	for _, row := range rows {
		moderator, err := r.directory.FirstModerator(ctx, row.OrganizationID)
		if err != nil {
			logger.Log.WithError(err).WithField("organization_id", row.OrganizationID).Warn("no moderator to remind")
			continue
		}

		email := ReminderEmail{
			PendingCount: row.Pending,
			OldestTitle:  row.OldestTitle,
			QueueURL:     fmt.Sprintf("%s/moderation/pending", r.appBaseURL),
		}
		if err := r.sender.Send(ctx, moderator.Email, email.Subject(), email.Body()); err != nil {
			logger.Log.WithError(err).WithField("organization_id", row.OrganizationID).Error("failed to send reminder email")
			continue
		}

		logger.Log.WithFields(map[string]interface{}{
			"organization_id": row.OrganizationID,
			"pending":         row.Pending,
		}).Info("Sent pending review reminder")
	}
}
