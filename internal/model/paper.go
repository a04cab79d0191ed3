package model

import (
	"time"

	"github.com/google/uuid"
)

// PaperItemType distinguishes question slots from section dividers.
type PaperItemType string

const (
	PaperItemQuestion PaperItemType = "QUESTION"
	PaperItemSection  PaperItemType = "SECTION"
)

// PaperItem is one ordered slot of a paper. SortOrder is authoritative.
type PaperItem struct {
	Type         PaperItemType `json:"type"`
	QuestionID   string        `json:"question_id,omitempty"`
	SectionTitle string        `json:"section_title,omitempty"`
	Score        float64       `json:"score,omitempty"`
	SortOrder    int           `json:"sort_order"`
}

// Paper is an ordered collection of question references and section headers.
// QuestionIDs is the flat legacy list; Items, when present, takes precedence.
type Paper struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	CreatedBy   *uuid.UUID  `json:"created_by,omitempty"`
	QuestionIDs []string    `json:"question_ids"`
	Items       []PaperItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}

// HasItems reports whether the paper defines an explicit item ordering.
func (p *Paper) HasItems() bool {
	return len(p.Items) > 0
}

// CreatePaperRequest creates a paper either from a flat id list or from items.
type CreatePaperRequest struct {
	Title       string             `json:"title" binding:"omitempty,max=255"`
	QuestionIDs []string           `json:"question_ids" binding:"omitempty,dive,required"`
	Items       []PaperItemRequest `json:"items" binding:"omitempty,dive"`
}

// PaperItemRequest is one item in a CreatePaperRequest, sorted by list position.
type PaperItemRequest struct {
	Type         PaperItemType `json:"type" binding:"required,oneof=QUESTION SECTION"`
	QuestionID   string        `json:"question_id" binding:"required_if=Type QUESTION"`
	SectionTitle string        `json:"section_title" binding:"required_if=Type SECTION,max=255"`
	Score        float64       `json:"score" binding:"gte=0"`
}

// GeneratePaperRequest picks questions at random from the bank.
type GeneratePaperRequest struct {
	Title      string               `json:"title" binding:"omitempty,max=255"`
	Total      int                  `json:"total" binding:"required,min=1,max=500"`
	TypeCounts map[QuestionType]int `json:"type_counts" binding:"omitempty"`
	Difficulty Difficulty           `json:"difficulty" binding:"omitempty,oneof=EASY MEDIUM HARD"`
}
