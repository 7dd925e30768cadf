package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edumint-ai/platform/pkg/common/models"
)

type recordingSender struct {
	to       []string
	subjects []string
	bodies   []string
	err      error
}

func (r *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	if r.err != nil {
		return r.err
	}
	r.to = append(r.to, to)
	r.subjects = append(r.subjects, subject)
	r.bodies = append(r.bodies, body)
	return nil
}

func TestDispatcherSendsReviewRequest(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	event := models.Event{
		ID:   "evt-1",
		Type: "moderation.requested",
		Data: map[string]interface{}{
			"title":           "Fractions quiz",
			"requester_name":  "Pat",
			"requester_email": "pat@school.edu",
			"moderator_email": "mod@school.edu",
			"violations":      []interface{}{"bias detected", "misinformation detected"},
			"excerpt":         "quiz about fractions, contact ***@*** with questions",
			"approve_url":     "http://localhost:3000/moderation/abc?decision=approved",
			"decline_url":     "http://localhost:3000/moderation/abc?decision=declined",
		},
	}
	if err := d.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(sender.to) != 1 || sender.to[0] != "mod@school.edu" {
		t.Fatalf("expected email to moderator, got %v", sender.to)
	}
	if !strings.Contains(sender.bodies[0], "bias detected") {
		t.Fatal("expected violations in the body")
	}
	if !strings.Contains(sender.bodies[0], "decision=approved") {
		t.Fatal("expected approve link in the body")
	}
	if !strings.Contains(sender.bodies[0], "contact ***@*** with questions") {
		t.Fatal("expected the redacted excerpt in the body")
	}
}

func TestDispatcherSendsDecision(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	event := models.Event{
		ID:   "evt-2",
		Type: "moderation.decided",
		Data: map[string]interface{}{
			"title":           "Fractions quiz",
			"status":          "declined",
			"notes":           "please rephrase question 3",
			"requester_email": "pat@school.edu",
		},
	}
	if err := d.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(sender.to) != 1 || sender.to[0] != "pat@school.edu" {
		t.Fatalf("expected email to requester, got %v", sender.to)
	}
	if !strings.Contains(sender.subjects[0], "declined") {
		t.Fatalf("expected status in subject, got %q", sender.subjects[0])
	}
	if !strings.Contains(sender.bodies[0], "question 3") {
		t.Fatal("expected moderator notes in the body")
	}
}

func TestDispatcherSwallowsSendFailures(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	d := NewDispatcher(sender)

	event := models.Event{
		Type: "moderation.decided",
		Data: map[string]interface{}{"requester_email": "pat@school.edu"},
	}
	if err := d.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("send failures must not fail the handler: %v", err)
	}
}

func TestDispatcherIgnoresUnknownEvents(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender)

	if err := d.HandleEvent(context.Background(), models.Event{Type: "generation.completed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.to) != 0 {
		t.Fatal("unknown events must not send email")
	}
}
