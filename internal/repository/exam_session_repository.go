package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbank/exam-platform/internal/database"
	"github.com/qbank/exam-platform/internal/model"
)

// ExamSessionRepository handles exam session and record data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, paper_id, user_id, type, random_seed, start_time, end_time, graded_at, score`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.PaperID, &s.UserID, &s.Type, &s.RandomSeed, &s.StartTime, &s.EndTime, &s.GradedAt, &s.Score)
	if err != nil {
		return nil, err
	}
	s.Status = s.DeriveStatus()
	s.Records = []model.ExamRecord{}
	return s, nil
}

// Create inserts a new in-progress session. The seed must already be set.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (paper_id, user_id, type, random_seed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, start_time`,
		s.PaperID, s.UserID, s.Type, s.RandomSeed,
	).Scan(&s.ID, &s.StartTime)
	if err != nil {
		return translate(err, "exam session")
	}
	s.Status = model.SessionStatusInProgress
	s.Records = []model.ExamRecord{}
	return nil
}

// GetByID retrieves a session with its records in stored order.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return r.get(ctx, r.pool, id, false)
}

func (r *ExamSessionRepository) get(ctx context.Context, q querier, id uuid.UUID, lock bool) (*model.ExamSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM exam_sessions WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	s, err := scanSession(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, "exam session")
	}
	if s.Records, err = r.records(ctx, q, id); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ExamSessionRepository) records(ctx context.Context, q querier, sessionID uuid.UUID) ([]model.ExamRecord, error) {
	rows, err := q.Query(ctx,
		`SELECT question_id, user_answer, is_correct, score::float8, notes, is_flagged
		 FROM exam_records WHERE session_id = $1 ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.ExamRecord{}
	for rows.Next() {
		var rec model.ExamRecord
		if err := rows.Scan(&rec.QuestionID, &rec.UserAnswer, &rec.IsCorrect, &rec.Score, &rec.Notes, &rec.IsFlagged); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SessionMutator changes a locked session in memory. Returning an error
// aborts the transaction.
type SessionMutator func(s *model.ExamSession) error

// UpdateInTx locks the session row, applies mutate and writes the result
// back: timestamps and score are updated and the record set is replaced.
// Concurrent callers for the same session are serialized by the row lock.
func (r *ExamSessionRepository) UpdateInTx(ctx context.Context, id uuid.UUID, mutate SessionMutator) (*model.ExamSession, error) {
	var out *model.ExamSession
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := r.get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := mutate(s); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE exam_sessions SET end_time = $1, graded_at = $2, score = $3 WHERE id = $4`,
			s.EndTime, s.GradedAt, s.Score, s.ID); err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM exam_records WHERE session_id = $1`, s.ID); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		if len(s.Records) > 0 {
			rows := make([][]any, len(s.Records))
			for i, rec := range s.Records {
				rows[i] = []any{s.ID, i, rec.QuestionID, rec.UserAnswer, rec.IsCorrect, rec.Score, rec.Notes, rec.IsFlagged}
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"exam_records"},
				[]string{"session_id", "position", "question_id", "user_answer", "is_correct", "score", "notes", "is_flagged"},
				pgx.CopyFromRows(rows)); err != nil {
				return translate(err, "exam record")
			}
		}

		s.Status = s.DeriveStatus()
		out = s
		return nil
	})
	return out, err
}

// List retrieves a filtered page of sessions, newest first. Records are not loaded.
func (r *ExamSessionRepository) List(ctx context.Context, f model.ExamSessionFilter, limit, offset int) ([]model.ExamSession, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.PaperID != nil {
		args = append(args, *f.PaperID)
		where += fmt.Sprintf(" AND paper_id = $%d", len(args))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_sessions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + sessionColumns + ` FROM exam_sessions` + where +
		fmt.Sprintf(" ORDER BY start_time DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := []model.ExamSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

// ScoredByPaper returns every session of a paper that has a score, with records.
func (r *ExamSessionRepository) ScoredByPaper(ctx context.Context, paperID uuid.UUID) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE paper_id = $1 AND score IS NOT NULL
		 ORDER BY start_time`, paperID)
	if err != nil {
		return nil, err
	}

	sessions := []model.ExamSession{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, *s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	recRows, err := r.pool.Query(ctx,
		`SELECT rec.session_id, rec.question_id, rec.user_answer, rec.is_correct, rec.score::float8, rec.notes, rec.is_flagged
		 FROM exam_records rec
		 JOIN exam_sessions s ON s.id = rec.session_id
		 WHERE s.paper_id = $1 AND s.score IS NOT NULL
		 ORDER BY rec.session_id, rec.position`, paperID)
	if err != nil {
		return nil, err
	}
	defer recRows.Close()

	for recRows.Next() {
		var sid uuid.UUID
		var rec model.ExamRecord
		if err := recRows.Scan(&sid, &rec.QuestionID, &rec.UserAnswer, &rec.IsCorrect, &rec.Score, &rec.Notes, &rec.IsFlagged); err != nil {
			return nil, err
		}
		if i, ok := index[sid]; ok {
			sessions[i].Records = append(sessions[i].Records, rec)
		}
	}
	return sessions, recRows.Err()
}
