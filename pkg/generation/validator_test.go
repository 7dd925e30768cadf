package generation

import (
	"testing"

	"github.com/edumint-ai/platform/pkg/common/models"
)

func TestValidatorAcceptsKnownTools(t *testing.T) {
	v := NewValidator(DefaultTools(), 50)
	req := models.GenerateRequest{Tool: "quiz", Topic: "the water cycle", ItemCount: 10}
	if err := v.Validate(req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req.Tool = " Quiz "
	if err := v.Validate(req); err != nil {
		t.Fatalf("expected tool matching to ignore case and spacing, got %v", err)
	}
}

func TestValidatorRejects(t *testing.T) {
	v := NewValidator(DefaultTools(), 50)

	cases := []models.GenerateRequest{
		{Tool: "", Topic: "topic"},
		{Tool: "essay-grader", Topic: "topic"},
		{Tool: "quiz", Topic: "   "},
		{Tool: "quiz", Topic: "topic", ItemCount: -1},
		{Tool: "quiz", Topic: "topic", ItemCount: 51},
	}
	for _, req := range cases {
		err := v.Validate(req)
		if err == nil {
			t.Fatalf("expected rejection for %+v", req)
		}
		if !IsValidationError(err) {
			t.Fatalf("expected a validation error for %+v, got %v", req, err)
		}
	}
}

func TestValidatorZeroItemCountMeansDefault(t *testing.T) {
	v := NewValidator(DefaultTools(), 50)
	req := models.GenerateRequest{Tool: "mcq", Topic: "fractions"}
	if err := v.Validate(req); err != nil {
		t.Fatalf("item count 0 should defer to the service default, got %v", err)
	}
}
