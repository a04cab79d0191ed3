package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/exam"
	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/repository"
	"github.com/qbank/exam-platform/internal/response"
)

type questionStore interface {
	GetByID(ctx context.Context, id string) (*model.Question, error)
	List(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id string) error
	ApplyReview(ctx context.Context, id string, decide repository.ReviewFunc) (*model.Question, error)
	ReviewHistory(ctx context.Context, id string) ([]model.QuestionReview, error)
	VersionHistory(ctx context.Context, id string) ([]model.QuestionVersion, error)
}

// QuestionService handles question bank authoring and the review workflow.
type QuestionService struct {
	questionRepo questionStore
	now          func() time.Time
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo questionStore) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, now: time.Now}
}

// List retrieves questions with pagination.
func (s *QuestionService) List(ctx context.Context, f model.QuestionFilter, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage, limit, offset := paginate(page, perPage)
	questions, total, err := s.questionRepo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return questions, pagination(page, perPage, total), nil
}

// ListPending retrieves the review queue.
func (s *QuestionService) ListPending(ctx context.Context, page, perPage int) ([]model.Question, *response.Pagination, error) {
	return s.List(ctx, model.QuestionFilter{Status: model.QuestionStatusPendingReview}, page, perPage)
}

// Get retrieves a single question.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create validates and stores a new DRAFT question.
func (s *QuestionService) Create(ctx context.Context, req model.UpsertQuestionRequest, authorID uuid.UUID) (*model.Question, error) {
	options, err := normalizeOptions(req.Type, req.Options)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		Type:              req.Type,
		Stem:              strings.TrimSpace(req.Stem),
		Options:           options,
		Analysis:          req.Analysis,
		Difficulty:        req.Difficulty,
		KnowledgePointIDs: req.KnowledgePointIDs,
		Tags:              req.Tags,
		CreatedBy:         &authorID,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Update replaces a question's content. Editing content that is under review
// or already approved sends it back to DRAFT.
func (s *QuestionService) Update(ctx context.Context, id string, req model.UpsertQuestionRequest) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	options, err := normalizeOptions(req.Type, req.Options)
	if err != nil {
		return nil, err
	}

	q.Type = req.Type
	q.Stem = strings.TrimSpace(req.Stem)
	q.Options = options
	q.Analysis = req.Analysis
	q.Difficulty = req.Difficulty
	q.KnowledgePointIDs = req.KnowledgePointIDs
	q.Tags = req.Tags
	if q.Status == model.QuestionStatusApproved || q.Status == model.QuestionStatusPendingReview {
		q.Status = model.QuestionStatusDraft
	}

	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	return s.questionRepo.Delete(ctx, id)
}

// Submit sends a DRAFT or REJECTED question to review. The current content is
// snapshotted under the current version and the version is bumped.
func (s *QuestionService) Submit(ctx context.Context, id string, actor uuid.UUID) (*model.Question, error) {
	return s.questionRepo.ApplyReview(ctx, id, func(q *model.Question) (*model.QuestionReview, error) {
		if q.Status != model.QuestionStatusDraft && q.Status != model.QuestionStatusRejected {
			return nil, apperr.InvalidState("cannot submit question in status %s", q.Status)
		}
		q.Status = model.QuestionStatusPendingReview
		q.Version++
		return &model.QuestionReview{
			Version:    q.Version,
			Action:     model.ReviewActionSubmit,
			ReviewerID: actor,
		}, nil
	})
}

// Approve accepts a pending or previously rejected question.
func (s *QuestionService) Approve(ctx context.Context, id string, reviewer uuid.UUID, notes string) (*model.Question, error) {
	return s.questionRepo.ApplyReview(ctx, id, s.decide(model.ReviewActionApprove, reviewer, notes))
}

// Reject refuses a pending question or revokes an approval.
func (s *QuestionService) Reject(ctx context.Context, id string, reviewer uuid.UUID, notes string) (*model.Question, error) {
	return s.questionRepo.ApplyReview(ctx, id, s.decide(model.ReviewActionReject, reviewer, notes))
}

func (s *QuestionService) decide(action model.ReviewAction, reviewer uuid.UUID, notes string) repository.ReviewFunc {
	return func(q *model.Question) (*model.QuestionReview, error) {
		var from model.QuestionStatus
		var to model.QuestionStatus
		switch action {
		case model.ReviewActionApprove:
			from, to = model.QuestionStatusRejected, model.QuestionStatusApproved
		case model.ReviewActionReject:
			from, to = model.QuestionStatusApproved, model.QuestionStatusRejected
		}
		if q.Status != model.QuestionStatusPendingReview && q.Status != from {
			return nil, apperr.InvalidState("cannot %s question in status %s", strings.ToLower(string(action)), q.Status)
		}

		now := s.now()
		q.Status = to
		q.ReviewerID = &reviewer
		q.ReviewedAt = &now
		q.ReviewNotes = &notes
		return &model.QuestionReview{
			Version:    q.Version,
			Action:     action,
			ReviewerID: reviewer,
			Notes:      notes,
		}, nil
	}
}

// ReviewHistory lists the review log of a question.
func (s *QuestionService) ReviewHistory(ctx context.Context, id string) ([]model.QuestionReview, error) {
	if _, err := s.questionRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.questionRepo.ReviewHistory(ctx, id)
}

// VersionHistory lists the content snapshots of a question.
func (s *QuestionService) VersionHistory(ctx context.Context, id string) ([]model.QuestionVersion, error) {
	if _, err := s.questionRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.questionRepo.VersionHistory(ctx, id)
}

// normalizeOptions parses an authored option payload and re-encodes it in the
// strict object form. Every array element must be readable as an option and
// objective types must pass CheckOptions.
func normalizeOptions(t model.QuestionType, raw json.RawMessage) (json.RawMessage, error) {
	opts, err := exam.ParseOptions(raw)
	if err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if json.Unmarshal(raw, &elems) == nil && len(opts) < len(elems) {
		return nil, apperr.Validation("%d of %d options are malformed", len(elems)-len(opts), len(elems))
	}
	if err := exam.CheckOptions(t, opts); err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		return nil, nil
	}
	out, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	return out, nil
}
