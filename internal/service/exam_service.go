package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/exam"
	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/repository"
	"github.com/qbank/exam-platform/internal/response"
)

type sessionStore interface {
	Create(ctx context.Context, s *model.ExamSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	List(ctx context.Context, f model.ExamSessionFilter, limit, offset int) ([]model.ExamSession, int, error)
	UpdateInTx(ctx context.Context, id uuid.UUID, mutate repository.SessionMutator) (*model.ExamSession, error)
	ScoredByPaper(ctx context.Context, paperID uuid.UUID) ([]model.ExamSession, error)
}

type paperReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Paper, error)
}

type questionLister interface {
	ListByIDs(ctx context.Context, ids []string) ([]model.Question, error)
}

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type statsStore interface {
	UpdateInTx(ctx context.Context, userID uuid.UUID, mutate repository.StatsMutator) (*model.StudentStats, error)
}

type draftStore interface {
	Load(ctx context.Context, sessionID uuid.UUID) (*Draft, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

// ExamObserver is notified of session lifecycle events.
type ExamObserver interface {
	ExamStarted(t model.ExamType)
	ExamSubmitted(t model.ExamType, score int)
	ExamGraded()
}

type noopObserver struct{}

func (noopObserver) ExamStarted(model.ExamType)       {}
func (noopObserver) ExamSubmitted(model.ExamType, int) {}
func (noopObserver) ExamGraded()                       {}

// Viewer identifies who is looking at a session.
type Viewer struct {
	UserID uuid.UUID
	// CanReadAll is set for graders allowed to open other users' sessions.
	CanReadAll bool
}

// ExamService runs the exam lifecycle: start, submit, grade and view.
type ExamService struct {
	sessions  sessionStore
	papers    paperReader
	questions questionLister
	users     userReader
	stats     statsStore
	drafts    draftStore
	observer  ExamObserver
	log       zerolog.Logger

	seed SeedSource
	now  func() time.Time
}

// NewExamService creates a new ExamService. observer may be nil.
func NewExamService(
	sessions sessionStore,
	papers paperReader,
	questions questionLister,
	users userReader,
	stats statsStore,
	drafts draftStore,
	observer ExamObserver,
	log zerolog.Logger,
) *ExamService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ExamService{
		sessions:  sessions,
		papers:    papers,
		questions: questions,
		users:     users,
		stats:     stats,
		drafts:    drafts,
		observer:  observer,
		log:       log.With().Str("component", "exam_service").Logger(),
		seed:      CryptoSeed,
		now:       time.Now,
	}
}

// StartExam opens a new session on a paper. The shuffle seed is fixed here
// for the lifetime of the session.
func (s *ExamService) StartExam(ctx context.Context, paperID, userID uuid.UUID, t model.ExamType) (*model.ExamSession, error) {
	if t == "" {
		t = model.ExamTypeExam
	}
	if t != model.ExamTypeExam && t != model.ExamTypePractice {
		return nil, apperr.Validation("unknown exam type %q", t)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if _, err := s.papers.GetByID(ctx, paperID); err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	session := &model.ExamSession{
		PaperID:    paperID,
		UserID:     userID,
		Type:       t,
		RandomSeed: s.seed(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.observer.ExamStarted(t)
	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("paper_id", paperID.String()).
		Str("user_id", userID.String()).
		Str("type", string(t)).
		Msg("Exam started")
	return session, nil
}

// ownedSession loads a session and checks that userID owns it.
func (s *ExamService) ownedSession(ctx context.Context, sessionID, userID uuid.UUID) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperr.Forbidden("session belongs to another user")
	}
	return session, nil
}

// SubmitExam closes a session with the given answers and auto-grades it.
// The session row stays locked from the end-time check to the record write,
// so of two concurrent submits exactly one succeeds. Student stats and the
// draft are updated after commit; their failures are only logged.
func (s *ExamService) SubmitExam(ctx context.Context, sessionID, userID uuid.UUID, answers map[string]string, flagged []string) (*model.ExamSession, error) {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, apperr.ErrAlreadySubmitted
	}

	paper, err := s.papers.GetByID(ctx, session.PaperID)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	questions, err := s.questions.ListByIDs(ctx, exam.ResolveQuestionIDs(paper, session))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	now := s.now()
	var result exam.SubmitResult
	updated, err := s.sessions.UpdateInTx(ctx, sessionID, func(locked *model.ExamSession) error {
		res, err := exam.Submit(locked, paper, questions, answers, flagged, now)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordStats(ctx, userID, result, now)
	if err := s.drafts.Clear(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to clear draft")
	}

	s.observer.ExamSubmitted(updated.Type, result.Score)
	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("total", result.Total).
		Int("correct", result.Correct).
		Int("score", result.Score).
		Msg("Exam submitted")
	return updated, nil
}

// SubmitDraft submits a session using its autosaved draft as the answer set.
func (s *ExamService) SubmitDraft(ctx context.Context, sessionID, userID uuid.UUID) (*model.ExamSession, error) {
	draft, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.SubmitExam(ctx, sessionID, userID, draft.Answers, draft.Flagged)
}

func (s *ExamService) recordStats(ctx context.Context, userID uuid.UUID, res exam.SubmitResult, now time.Time) {
	_, err := s.stats.UpdateInTx(ctx, userID, func(stats *model.StudentStats) error {
		exam.RecordPractice(stats, res, now)
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update student stats")
	}
}

// GradeExam applies manual score overrides to a submitted session and
// recomputes its score. Repeating the same overrides yields the same result.
func (s *ExamService) GradeExam(ctx context.Context, sessionID uuid.UUID, overrides []model.GradeOverride) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	paper, err := s.papers.GetByID(ctx, session.PaperID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	updated, err := s.sessions.UpdateInTx(ctx, sessionID, func(locked *model.ExamSession) error {
		return exam.Grade(locked, paper, overrides, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.observer.ExamGraded()
	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("overrides", len(overrides)).
		Msg("Exam graded")
	return updated, nil
}

// GetExam assembles the view of a session. The owner sees the take view
// while the session is in progress and the review view afterwards; other
// viewers need CanReadAll and always get the review view.
func (s *ExamService) GetExam(ctx context.Context, sessionID uuid.UUID, viewer Viewer) (*model.ExamView, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	owner := session.UserID == viewer.UserID
	if !owner && !viewer.CanReadAll {
		return nil, apperr.Forbidden("session belongs to another user")
	}
	mode := model.ModeReview
	if owner && session.EndTime == nil {
		mode = model.ModeTake
	}

	paper, err := s.papers.GetByID(ctx, session.PaperID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByIDs(ctx, exam.ResolveQuestionIDs(paper, session))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return exam.Assemble(session, paper, questions, mode)
}

// OpenDraft checks that userID may autosave into the session.
func (s *ExamService) OpenDraft(ctx context.Context, sessionID, userID uuid.UUID) (*model.ExamSession, error) {
	session, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, apperr.ErrAlreadySubmitted
	}
	return session, nil
}

// ListExams retrieves sessions with pagination, newest first.
func (s *ExamService) ListExams(ctx context.Context, f model.ExamSessionFilter, page, perPage int) ([]model.ExamSession, *response.Pagination, error) {
	page, perPage, limit, offset := paginate(page, perPage)
	sessions, total, err := s.sessions.List(ctx, f, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return sessions, pagination(page, perPage, total), nil
}

// PaperAnalytics summarizes every scored session of a paper.
func (s *ExamService) PaperAnalytics(ctx context.Context, paperID uuid.UUID) (*model.PaperAnalytics, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ScoredByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	questions, err := s.questions.ListByIDs(ctx, exam.ResolveQuestionIDs(paper, nil))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return buildAnalytics(paper, sessions, questions), nil
}
