package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Safety evaluation
type ContentFlags struct {
	PIIDetected               bool `json:"pii_detected"`
	BiasDetected              bool `json:"bias_detected"`
	ContentViolation          bool `json:"content_violation"`
	SelfHarmDetected          bool `json:"self_harm_detected"`
	ExtremistContentDetected  bool `json:"extremist_content_detected"`
	ChildSafetyViolation      bool `json:"child_safety_violation"`
	PromptInjectionDetected   bool `json:"prompt_injection_detected"`
	MisinformationDetected    bool `json:"misinformation_detected"`
	FraudulentIntentDetected  bool `json:"fraudulent_intent_detected"`
	AutomationMisuseDetected  bool `json:"automation_misuse_detected"`
}

type SafetyResult struct {
	Flags         ContentFlags `json:"flags"`
	ShouldProceed bool         `json:"should_proceed"`
	Violations    []string     `json:"violations,omitempty"`
}

// Generation attempt (metrics ledger record)
type GenerationAttempt struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Tool           string         `json:"tool"`
	Model          string         `json:"model"`
	InputBytes     int            `json:"input_bytes"`
	OutputBytes    int            `json:"output_bytes"`
	InputTokens    int            `json:"input_tokens"`
	OutputTokens   int            `json:"output_tokens"`
	TotalTokens    int            `json:"total_tokens"`
	Price          float64        `json:"price"`
	Currency       string         `json:"currency"`
	Flags          ContentFlags   `json:"flags"`
	Flagged        bool           `json:"flagged"`
	ErrorType      string         `json:"error_type,omitempty"`
	StatusCode     int            `json:"status_code"`
	PromptID       *uuid.UUID     `json:"prompt_id,omitempty"`
	Title          string         `json:"title,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ModeratorID    *uuid.UUID     `json:"moderator_id,omitempty"`
	ModeratorNotes string         `json:"moderator_notes,omitempty"`
	ReviewAskedAt  *time.Time     `json:"review_asked_at,omitempty"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Moderation lifecycle
type ApprovalStatus string

const (
	ApprovalNotRequested ApprovalStatus = "not_requested"
	ApprovalPending      ApprovalStatus = "pending"
	ApprovalApproved     ApprovalStatus = "approved"
	ApprovalDeclined     ApprovalStatus = "declined"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalNotRequested, ApprovalPending, ApprovalApproved, ApprovalDeclined:
		return true
	}
	return false
}

// NotApprovedError is returned when approved-only access is attempted on
// content in any other state. It carries the current status so callers can
// render state-appropriate responses instead of a bare forbidden.
type NotApprovedError struct {
	Status ApprovalStatus
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("content is not approved (current status: %s)", e.Status)
}

type ModerationRecord struct {
	ContentID      uuid.UUID      `json:"content_id"`
	RequesterID    uuid.UUID      `json:"requester_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Title          string         `json:"title,omitempty"`
	Status         ApprovalStatus `json:"status"`
	Violations     []string       `json:"violations,omitempty"`
	ModeratorID    *uuid.UUID     `json:"moderator_id,omitempty"`
	ModeratorNotes string         `json:"moderator_notes,omitempty"`
	ReviewAskedAt  *time.Time     `json:"review_asked_at,omitempty"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
}

// Generated output
type GeneratedArtifact struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	Tool      string                 `json:"tool"`
	Title     string                 `json:"title"`
	Input     string                 `json:"input"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// One generated unit inside an artifact (e.g. a quiz question).
// Text is the field the deduplication heuristic compares.
type CandidateItem struct {
	Text        string   `json:"text"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type GenerateRequest struct {
	Tool         string `json:"tool"` // lesson_plan, quiz, mcq, rubric
	Title        string `json:"title"`
	Topic        string `json:"topic"`
	ItemCount    int    `json:"item_count,omitempty"`
	ChatSurface  bool   `json:"chat_surface,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type GenerateResponse struct {
	Artifact *GeneratedArtifact `json:"artifact,omitempty"`
	Attempt  GenerationAttempt  `json:"attempt"`
	Message  string             `json:"message,omitempty"`
}

// Event bus
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // moderation.requested, moderation.decided, generation.completed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Identity
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID             uuid.UUID              `json:"id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	Email          string                 `json:"email"`
	Name           string                 `json:"name"`
	Role           string                 `json:"role"` // educator, moderator, admin
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type BootstrapRequest struct {
	OrganizationName string                 `json:"organization_name"`
	OrganizationSlug string                 `json:"organization_slug"`
	AdminEmail       string                 `json:"admin_email"`
	AdminName        string                 `json:"admin_name"`
	AdminPassword    string                 `json:"admin_password"`
	AdminMetadata    map[string]interface{} `json:"admin_metadata,omitempty"`
}

type RegisterUserRequest struct {
	OrganizationID uuid.UUID              `json:"organization_id,omitempty"`
	Email          string                 `json:"email"`
	Name           string                 `json:"name"`
	Role           string                 `json:"role,omitempty"`
	Password       string                 `json:"password"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  User         `json:"user"`
	Org   Organization `json:"organization,omitempty"`
}

type DecideModerationRequest struct {
	Decision string `json:"decision"` // approved or declined
	Notes    string `json:"notes,omitempty"`
}
