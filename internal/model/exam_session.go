package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType distinguishes graded exams from practice runs.
type ExamType string

const (
	ExamTypeExam     ExamType = "EXAM"
	ExamTypePractice ExamType = "PRACTICE"
)

// SessionStatus is derived from the session timestamps, never stored.
type SessionStatus string

const (
	SessionStatusInProgress       SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted        SessionStatus = "SUBMITTED"
	SessionStatusManuallyRegraded SessionStatus = "MANUALLY_REGRADED"
)

// ExamSession is one instance of a user taking a paper.
type ExamSession struct {
	ID         uuid.UUID     `json:"id"`
	PaperID    uuid.UUID     `json:"paper_id"`
	UserID     uuid.UUID     `json:"user_id"`
	Type       ExamType      `json:"type"`
	RandomSeed int64         `json:"random_seed"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	GradedAt   *time.Time    `json:"graded_at,omitempty"`
	Score      *int          `json:"score,omitempty"`
	Status     SessionStatus `json:"status"`
	Records    []ExamRecord  `json:"records"`
}

// ExamRecord is the outcome for one answered question. QuestionID is unique per session.
type ExamRecord struct {
	QuestionID string   `json:"question_id"`
	UserAnswer string   `json:"user_answer"`
	IsCorrect  *bool    `json:"is_correct"`
	Score      *float64 `json:"score"`
	Notes      *string  `json:"notes"`
	IsFlagged  bool     `json:"is_flagged"`
}

// DeriveStatus computes the lifecycle state from the timestamps.
func (s *ExamSession) DeriveStatus() SessionStatus {
	switch {
	case s.EndTime == nil:
		return SessionStatusInProgress
	case s.GradedAt != nil:
		return SessionStatusManuallyRegraded
	default:
		return SessionStatusSubmitted
	}
}

// Record returns the record for questionID, or nil.
func (s *ExamSession) Record(questionID string) *ExamRecord {
	for i := range s.Records {
		if s.Records[i].QuestionID == questionID {
			return &s.Records[i]
		}
	}
	return nil
}

// ExamSessionFilter narrows a session listing. Zero values match everything.
type ExamSessionFilter struct {
	PaperID *uuid.UUID
	UserID  *uuid.UUID
}

// StartExamRequest is the payload for starting an exam.
type StartExamRequest struct {
	PaperID string   `json:"paper_id" binding:"required,uuid"`
	Type    ExamType `json:"type" binding:"omitempty,oneof=EXAM PRACTICE"`
}

// SubmitExamRequest carries the final answers of a session.
type SubmitExamRequest struct {
	Answers map[string]string `json:"answers"`
	Flagged []string          `json:"flagged"`
}

// GradeOverride is a manual score for one question.
type GradeOverride struct {
	QuestionID string   `json:"question_id" binding:"required"`
	Score      *float64 `json:"score"`
	Notes      *string  `json:"notes"`
}

// GradeExamRequest is the payload for a manual regrade.
type GradeExamRequest struct {
	Overrides []GradeOverride `json:"overrides" binding:"required,dive"`
}

// ViewMode selects what an assembled view reveals.
type ViewMode string

const (
	// ModeTake hides option correctness.
	ModeTake ViewMode = "TAKE"
	// ModeReview exposes option correctness and grading details.
	ModeReview ViewMode = "REVIEW"
)

// ExamView is the ordered paper content as one session sees it.
type ExamView struct {
	SessionID  uuid.UUID     `json:"session_id"`
	PaperID    uuid.UUID     `json:"paper_id"`
	PaperTitle string        `json:"paper_title"`
	Mode       ViewMode      `json:"mode"`
	Status     SessionStatus `json:"status"`
	Type       ExamType      `json:"type"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	Score      *int          `json:"score,omitempty"`
	Items      []ViewItem    `json:"items"`
}

// ViewItemKind tags a view entry.
type ViewItemKind string

const (
	ViewItemQuestion ViewItemKind = "QUESTION"
	ViewItemSection  ViewItemKind = "SECTION"
)

// ViewItem is either a section header or a rendered question.
type ViewItem struct {
	Kind         ViewItemKind `json:"kind"`
	SectionTitle string       `json:"section_title,omitempty"`
	QuestionID   string       `json:"question_id,omitempty"`
	Type         QuestionType `json:"type,omitempty"`
	Stem         string       `json:"stem,omitempty"`
	MaxScore     float64      `json:"max_score,omitempty"`
	Options      []ViewOption `json:"options,omitempty"`
	Analysis     string       `json:"analysis,omitempty"`
	UserAnswer   *string      `json:"user_answer,omitempty"`
	AwardedScore *float64     `json:"awarded_score,omitempty"`
	GraderNotes  *string      `json:"grader_notes,omitempty"`
	IsCorrect    *bool        `json:"is_correct,omitempty"`
	IsFlagged    bool         `json:"is_flagged,omitempty"`
}

// ViewOption is one option as shown. IsCorrect is only set in ModeReview.
type ViewOption struct {
	Key       string `json:"key,omitempty"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}
