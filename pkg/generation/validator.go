package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edumint-ai/platform/pkg/common/models"
)

var (
	errInvalidTool  = errors.New("invalid tool")
	errEmptyTopic   = errors.New("missing topic")
	errInvalidCount = errors.New("invalid item count")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type Validator struct {
	allowedTools map[string]struct{}
	maxItems     int
}

func NewValidator(tools []string, maxItems int) *Validator {
	vt := make(map[string]struct{})
	for _, tool := range tools {
		if trimmed := strings.TrimSpace(strings.ToLower(tool)); trimmed != "" {
			vt[trimmed] = struct{}{}
		}
	}
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Validator{allowedTools: vt, maxItems: maxItems}
}

func (v *Validator) Validate(req models.GenerateRequest) error {
	if v == nil {
		return ValidationError{reason: errors.New("validator not initialised")}
	}

	tool := strings.TrimSpace(strings.ToLower(req.Tool))
	if tool == "" {
		return ValidationError{reason: fmt.Errorf("tool required: %w", errInvalidTool)}
	}
	if len(v.allowedTools) > 0 {
		if _, ok := v.allowedTools[tool]; !ok {
			return ValidationError{reason: fmt.Errorf("tool '%s' not supported: %w", tool, errInvalidTool)}
		}
	}

	if strings.TrimSpace(req.Topic) == "" {
		return ValidationError{reason: errEmptyTopic}
	}

	if req.ItemCount < 0 || req.ItemCount > v.maxItems {
		return ValidationError{reason: fmt.Errorf("item_count must be between 1 and %d: %w", v.maxItems, errInvalidCount)}
	}

	return nil
}
