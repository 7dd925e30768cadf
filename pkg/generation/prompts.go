package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edumint-ai/platform/pkg/common/models"
)

const (
	ToolLessonPlan = "lesson_plan"
	ToolQuiz       = "quiz"
	ToolMCQ        = "mcq"
	ToolRubric     = "rubric"
)

func DefaultTools() []string {
	return []string{ToolLessonPlan, ToolQuiz, ToolMCQ, ToolRubric}
}

// itemTool reports whether the tool produces a set of discrete items that go
// through the batched deduplication loop, as opposed to a single document.
func itemTool(tool string) bool {
	return tool == ToolQuiz || tool == ToolMCQ
}

func systemPromptFor(tool string) string {
	switch tool {
	case ToolLessonPlan:
		return "You are an experienced curriculum designer. Produce a structured lesson plan. Respond with a single JSON object."
	case ToolRubric:
		return "You are an experienced educator. Produce an assessment rubric with criteria and grade levels. Respond with a single JSON object."
	default:
		return "You are an experienced educator writing assessment questions. Respond with a single JSON object."
	}
}

func itemsPrompt(topic, instructions string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d distinct questions about the following topic.\n\nTopic: %s\n", n, topic)
	if instructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", instructions)
	}
	b.WriteString(`
Return a JSON object of the form:
{"questions": [{"text": "...", "options": ["...","...","...","..."], "answer": "...", "explanation": "..."}]}
Every question must cover a different aspect of the topic.`)
	return b.String()
}

func documentPrompt(tool, topic, instructions string) string {
	var b strings.Builder
	switch tool {
	case ToolLessonPlan:
		fmt.Fprintf(&b, "Create a complete lesson plan for the following topic.\n\nTopic: %s\n", topic)
		b.WriteString("Include: objectives, materials, warm-up, main activities, assessment, and homework.\n")
	case ToolRubric:
		fmt.Fprintf(&b, "Create an assessment rubric for the following topic.\n\nTopic: %s\n", topic)
		b.WriteString("Include criteria rows and performance level columns with descriptors.\n")
	default:
		fmt.Fprintf(&b, "Create educational content for the following topic.\n\nTopic: %s\n", topic)
	}
	if instructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", instructions)
	}
	b.WriteString("Return a single JSON object.")
	return b.String()
}

func parseItems(raw string) ([]models.CandidateItem, error) {
	var payload struct {
		Questions []models.CandidateItem `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed generation output: %w", err)
	}
	items := make([]models.CandidateItem, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func parseDocument(raw string) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed generation output: %w", err)
	}
	return payload, nil
}
