package notify

import (
	"context"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
)

// Dispatcher turns moderation events into emails. Email delivery is best
// effort: a failed send is logged and the event is still committed, so a
// broken mail relay never wedges the consumer group.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

func (d *Dispatcher) HandleEvent(ctx context.Context, event models.Event) error {
	switch event.Type {
	case "moderation.requested":
		d.sendReviewRequest(ctx, event)
	case "moderation.decided":
		d.sendDecision(ctx, event)
	default:
		logger.Log.WithField("type", event.Type).Debug("ignoring event")
	}
	return nil
}

func (d *Dispatcher) sendReviewRequest(ctx context.Context, event models.Event) {
	email := ReviewRequestEmail{
		Title:          stringField(event.Data, "title"),
		RequesterName:  stringField(event.Data, "requester_name"),
		RequesterEmail: stringField(event.Data, "requester_email"),
		Violations:     stringSliceField(event.Data, "violations"),
		Excerpt:        stringField(event.Data, "excerpt"),
		ApproveURL:     stringField(event.Data, "approve_url"),
		DeclineURL:     stringField(event.Data, "decline_url"),
	}

	to := stringField(event.Data, "moderator_email")
	if err := d.sender.Send(ctx, to, email.Subject(), email.Body()); err != nil {
		logger.Log.WithError(err).WithField("event_id", event.ID).Error("failed to send review request email")
	}
}

func (d *Dispatcher) sendDecision(ctx context.Context, event models.Event) {
	email := DecisionEmail{
		Title:  stringField(event.Data, "title"),
		Status: stringField(event.Data, "status"),
		Notes:  stringField(event.Data, "notes"),
	}

	to := stringField(event.Data, "requester_email")
	if err := d.sender.Send(ctx, to, email.Subject(), email.Body()); err != nil {
		logger.Log.WithError(err).WithField("event_id", event.ID).Error("failed to send decision email")
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(data map[string]interface{}, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
