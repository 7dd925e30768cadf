package safety

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/common/models"
	"github.com/edumint-ai/platform/pkg/observability/metrics"
)

var ErrEmptyInput = errors.New("input text required")

// Surface selects the aggregation policy. Tool generation blocks only on the
// six hard categories; the interactive chat surface additionally folds the
// remaining flags into content_violation and blocks on all of them.
type Surface string

const (
	SurfaceTool Surface = "tool"
	SurfaceChat Surface = "chat"
)

const defaultClassifierTimeout = 20 * time.Second

type Orchestrator struct {
	classifiers []Classifier
	prescreen   *PatternScreen
	timeout     time.Duration
}

func NewOrchestrator(classifiers []Classifier, prescreen *PatternScreen) *Orchestrator {
	return &Orchestrator{
		classifiers: classifiers,
		prescreen:   prescreen,
		timeout:     defaultClassifierTimeout,
	}
}

// WithTimeout bounds each individual judge call. A stuck judge then counts
// as a failure instead of holding the whole evaluation open.
func (o *Orchestrator) WithTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.timeout = d
	}
	return o
}

// Evaluate runs every classifier concurrently and aggregates the results.
// A classifier failure counts as false for that flag; evaluation never aborts
// on partial judge outages. That fail-open posture trades enforcement for
// availability and is visible in the classifier failure counter.
func (o *Orchestrator) Evaluate(ctx context.Context, input string, surface Surface) (models.SafetyResult, error) {
	if input == "" {
		return models.SafetyResult{}, ErrEmptyInput
	}

	results := make(map[string]bool, len(o.classifiers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, classifier := range o.classifiers {
		wg.Add(1)
		go func(c Classifier) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()
			flagged, err := c.Evaluate(cctx, input)
			if err != nil {
				metrics.IncClassifierFailed()
				logger.Log.WithError(err).WithField("classifier", c.Name()).Warn("classifier failed, defaulting to false")
				flagged = false
			}
			mu.Lock()
			results[c.Name()] = flagged
			mu.Unlock()
		}(classifier)
	}
	wg.Wait()

	flags := models.ContentFlags{
		PIIDetected:              results[FlagPII],
		BiasDetected:             results[FlagBias],
		ContentViolation:         results[FlagContentViolation],
		SelfHarmDetected:         results[FlagSelfHarm],
		ExtremistContentDetected: results[FlagExtremist],
		ChildSafetyViolation:     results[FlagChildSafety],
		PromptInjectionDetected:  results[FlagPromptInjection],
		MisinformationDetected:   results[FlagMisinformation],
		FraudulentIntentDetected: results[FlagFraudulentIntent],
		AutomationMisuseDetected: results[FlagAutomationMisuse],
	}

	// The regex pre-screen is a deterministic complement to the PII judge;
	// either signal sets the flag.
	if o.prescreen != nil && o.prescreen.Detect(input) {
		flags.PIIDetected = true
	}

	if surface == SurfaceChat {
		flags.ContentViolation = flags.PIIDetected || flags.BiasDetected ||
			flags.ContentViolation || flags.SelfHarmDetected ||
			flags.ExtremistContentDetected || flags.ChildSafetyViolation
	}

	proceed := shouldProceed(flags, surface)
	return models.SafetyResult{
		Flags:         flags,
		ShouldProceed: proceed,
		Violations:    Violations(flags),
	}, nil
}

func shouldProceed(flags models.ContentFlags, surface Surface) bool {
	blocked := flags.ContentViolation || flags.SelfHarmDetected ||
		flags.ExtremistContentDetected || flags.ChildSafetyViolation ||
		flags.BiasDetected || flags.MisinformationDetected
	if surface == SurfaceChat {
		blocked = blocked || flags.PromptInjectionDetected ||
			flags.FraudulentIntentDetected || flags.AutomationMisuseDetected
	}
	return !blocked
}

var violationLabels = []struct {
	set   func(models.ContentFlags) bool
	label string
}{
	{func(f models.ContentFlags) bool { return f.ContentViolation }, "content violation"},
	{func(f models.ContentFlags) bool { return f.SelfHarmDetected }, "self harm detected"},
	{func(f models.ContentFlags) bool { return f.ExtremistContentDetected }, "extremist content detected"},
	{func(f models.ContentFlags) bool { return f.ChildSafetyViolation }, "child safety violation"},
	{func(f models.ContentFlags) bool { return f.BiasDetected }, "bias detected"},
	{func(f models.ContentFlags) bool { return f.MisinformationDetected }, "misinformation detected"},
	{func(f models.ContentFlags) bool { return f.PIIDetected }, "personal information detected"},
	{func(f models.ContentFlags) bool { return f.PromptInjectionDetected }, "prompt injection detected"},
	{func(f models.ContentFlags) bool { return f.FraudulentIntentDetected }, "fraudulent intent detected"},
	{func(f models.ContentFlags) bool { return f.AutomationMisuseDetected }, "automation misuse detected"},
}

// Violations returns human-readable labels for every raised flag, in a fixed
// order with no duplicates. Callers join these into user-facing messages
// instead of exposing raw flag keys.
func Violations(flags models.ContentFlags) []string {
	var labels []string
	for _, v := range violationLabels {
		if v.set(flags) {
			labels = append(labels, v.label)
		}
	}
	return labels
}
