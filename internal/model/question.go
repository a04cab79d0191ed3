package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeFillBlank      QuestionType = "FILL_BLANK"
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// IsObjective reports whether answers to this type can be auto-graded from options.
func (t QuestionType) IsObjective() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// QuestionStatus tracks the authoring and review workflow.
type QuestionStatus string

const (
	QuestionStatusDraft         QuestionStatus = "DRAFT"
	QuestionStatusPendingReview QuestionStatus = "PENDING_REVIEW"
	QuestionStatusApproved      QuestionStatus = "APPROVED"
	QuestionStatusRejected      QuestionStatus = "REJECTED"
)

// Difficulty is a coarse authoring label used when generating papers.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Option is one answer choice in canonical (stored) order.
type Option struct {
	Key       string `json:"key,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a single item in the question bank.
// Options is kept raw because stored payloads come in several shapes;
// exam.ParseOptions normalizes them.
type Question struct {
	ID                string          `json:"id"`
	Type              QuestionType    `json:"type"`
	Stem              string          `json:"stem"`
	Options           json.RawMessage `json:"options,omitempty"`
	Analysis          string          `json:"analysis,omitempty"`
	Difficulty        Difficulty      `json:"difficulty,omitempty"`
	Status            QuestionStatus  `json:"status"`
	Version           int             `json:"version"`
	KnowledgePointIDs []string        `json:"knowledge_point_ids"`
	Tags              []string        `json:"tags"`
	CreatedBy         *uuid.UUID      `json:"created_by,omitempty"`
	ReviewerID        *uuid.UUID      `json:"reviewer_id,omitempty"`
	ReviewNotes       *string         `json:"review_notes,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// QuestionFilter narrows a question bank listing.
type QuestionFilter struct {
	Type             QuestionType
	Status           QuestionStatus
	Difficulty       Difficulty
	KnowledgePointID string
	Search           string
}

// UpsertQuestionRequest is the payload for creating or updating a question.
type UpsertQuestionRequest struct {
	Type              QuestionType    `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTIPLE_CHOICE TRUE_FALSE FILL_BLANK SHORT_ANSWER ESSAY"`
	Stem              string          `json:"stem" binding:"required,min=1,max=10000"`
	Options           json.RawMessage `json:"options"`
	Analysis          string          `json:"analysis" binding:"omitempty,max=10000"`
	Difficulty        Difficulty      `json:"difficulty" binding:"omitempty,oneof=EASY MEDIUM HARD"`
	KnowledgePointIDs []string        `json:"knowledge_point_ids" binding:"omitempty,dive,min=1,max=64"`
	Tags              []string        `json:"tags" binding:"omitempty,dive,min=1,max=64"`
}

// ReviewAction is a single step recorded in a question's review log.
type ReviewAction string

const (
	ReviewActionSubmit  ReviewAction = "SUBMIT"
	ReviewActionApprove ReviewAction = "APPROVE"
	ReviewActionReject  ReviewAction = "REJECT"
)

// QuestionVersion is the content snapshot taken when a question is submitted for review.
type QuestionVersion struct {
	QuestionID string          `json:"question_id"`
	Version    int             `json:"version"`
	Snapshot   json.RawMessage `json:"snapshot"`
	CreatedAt  time.Time       `json:"created_at"`
}

// QuestionReview is an append-only audit entry for the review workflow.
type QuestionReview struct {
	ID         int64        `json:"id"`
	QuestionID string       `json:"question_id"`
	Version    int          `json:"version"`
	Action     ReviewAction `json:"action"`
	ReviewerID uuid.UUID    `json:"reviewer_id"`
	Notes      string       `json:"notes"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ReviewRequest carries the reviewer's notes for approve/reject.
type ReviewRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=2000"`
}
