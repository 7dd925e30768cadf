package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	generationsAccepted atomic.Int64
	generationsBlocked  atomic.Int64
	generationsFailed   atomic.Int64
	classifierFailed    atomic.Int64
	moderationRequested atomic.Int64
	moderationDecided   atomic.Int64
	emailsSent          atomic.Int64
	emailsFailed        atomic.Int64
)

func IncGenerationAccepted()  { generationsAccepted.Add(1) }
func IncGenerationBlocked()   { generationsBlocked.Add(1) }
func IncGenerationFailed()    { generationsFailed.Add(1) }
func IncClassifierFailed()    { classifierFailed.Add(1) }
func IncModerationRequested() { moderationRequested.Add(1) }
func IncModerationDecided()   { moderationDecided.Add(1) }
func IncEmailSent()           { emailsSent.Add(1) }
func IncEmailFailed()         { emailsFailed.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeCounter(w, "edumint_generations_accepted_total", "Generation requests that passed the safety check.", generationsAccepted.Load())
	writeCounter(w, "edumint_generations_blocked_total", "Generation requests blocked by the safety check.", generationsBlocked.Load())
	writeCounter(w, "edumint_generations_failed_total", "Generation requests that failed downstream.", generationsFailed.Load())
	writeCounter(w, "edumint_classifier_failures_total", "Safety classifier calls that errored and defaulted to false.", classifierFailed.Load())
	writeCounter(w, "edumint_moderation_requested_total", "Moderation review requests.", moderationRequested.Load())
	writeCounter(w, "edumint_moderation_decided_total", "Moderation decisions recorded.", moderationDecided.Load())
	writeCounter(w, "edumint_emails_sent_total", "Notification emails sent.", emailsSent.Load())
	writeCounter(w, "edumint_emails_failed_total", "Notification emails that failed to send.", emailsFailed.Load())
}

func writeCounter(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
