package notify

import (
	"fmt"
	"strings"
)

type ReviewRequestEmail struct {
	Title          string
	RequesterName  string
	RequesterEmail string
	Violations     []string
	Excerpt        string
	ApproveURL     string
	DeclineURL     string
}

func (e ReviewRequestEmail) Subject() string {
	return fmt.Sprintf("Review requested: %s", e.Title)
}

func (e ReviewRequestEmail) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) asked for a review of %q.\n\n", e.RequesterName, e.RequesterEmail, e.Title)
	if len(e.Violations) > 0 {
		b.WriteString("The automated safety check raised:\n")
		for _, v := range e.Violations {
			fmt.Fprintf(&b, "  - %s\n", v)
		}
		b.WriteString("\n")
	}
	if e.Excerpt != "" {
		fmt.Fprintf(&b, "Submitted input (personal data masked):\n%s\n\n", e.Excerpt)
	}
	fmt.Fprintf(&b, "Approve: %s\n", e.ApproveURL)
	fmt.Fprintf(&b, "Decline: %s\n", e.DeclineURL)
	return b.String()
}

type DecisionEmail struct {
	Title  string
	Status string
	Notes  string
}

func (e DecisionEmail) Subject() string {
	return fmt.Sprintf("Your content %q was %s", e.Title, e.Status)
}

func (e DecisionEmail) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "A moderator marked %q as %s.\n", e.Title, e.Status)
	if e.Notes != "" {
		fmt.Fprintf(&b, "\nModerator notes:\n%s\n", e.Notes)
	}
	return b.String()
}

type ReminderEmail struct {
	PendingCount int
	OldestTitle  string
	QueueURL     string
}

func (e ReminderEmail) Subject() string {
	return fmt.Sprintf("%d content reviews waiting", e.PendingCount)
}

func (e ReminderEmail) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your organization has %d pieces of content waiting for review.\n", e.PendingCount)
	if e.OldestTitle != "" {
		fmt.Fprintf(&b, "The oldest is %q.\n", e.OldestTitle)
	}
	if e.QueueURL != "" {
		fmt.Fprintf(&b, "\nReview queue: %s\n", e.QueueURL)
	}
	return b.String()
}
