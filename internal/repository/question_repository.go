package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbank/exam-platform/internal/database"
	"github.com/qbank/exam-platform/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, type, stem, options, analysis, difficulty, status, version,
	knowledge_point_ids, tags, created_by, reviewer_id, review_notes, reviewed_at, created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.Type, &q.Stem, &q.Options, &q.Analysis, &q.Difficulty, &q.Status, &q.Version,
		&q.KnowledgePointIDs, &q.Tags, &q.CreatedBy, &q.ReviewerID, &q.ReviewNotes, &q.ReviewedAt, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "question")
	}
	return q, nil
}

// ListByIDs retrieves the questions among ids that exist. Order is unspecified.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// List retrieves a filtered page of questions, newest first, with the total count.
func (r *QuestionRepository) List(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if f.Type != "" {
		args = append(args, f.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Difficulty != "" {
		args = append(args, f.Difficulty)
		where += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}
	if f.KnowledgePointID != "" {
		args = append(args, f.KnowledgePointID)
		where += fmt.Sprintf(" AND $%d = ANY(knowledge_point_ids)", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND stem ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + questionColumns + ` FROM questions` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// Candidates returns id and type of every question usable for paper
// generation, optionally restricted to one difficulty.
func (r *QuestionRepository) Candidates(ctx context.Context, difficulty model.Difficulty) ([]model.Question, error) {
	query := `SELECT id, type FROM questions`
	args := []any{}
	if difficulty != "" {
		query += ` WHERE UPPER(difficulty) = UPPER($1)`
		args = append(args, difficulty)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Type); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Create inserts a new question in DRAFT status.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (type, stem, options, analysis, difficulty, status, version, knowledge_point_ids, tags, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $9)
		 RETURNING id, version, created_at, updated_at`,
		q.Type, q.Stem, nullableJSON(q.Options), q.Analysis, q.Difficulty, model.QuestionStatusDraft,
		nonNil(q.KnowledgePointIDs), nonNil(q.Tags), q.CreatedBy,
	).Scan(&q.ID, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return translate(err, "question")
	}
	q.Status = model.QuestionStatusDraft
	return nil
}

// Update replaces the editable content of a question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET type = $1, stem = $2, options = $3, analysis = $4, difficulty = $5,
		     knowledge_point_ids = $6, tags = $7, status = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING updated_at`,
		q.Type, q.Stem, nullableJSON(q.Options), q.Analysis, q.Difficulty,
		nonNil(q.KnowledgePointIDs), nonNil(q.Tags), q.Status, q.ID,
	).Scan(&q.UpdatedAt)
	return translate(err, "question")
}

// Delete removes a question. Papers and sessions keep their dangling ids.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "question")
	}
	return nil
}

// ReviewFunc inspects a locked question, mutates it in place and returns the
// log entry to append.
type ReviewFunc func(q *model.Question) (*model.QuestionReview, error)

// ApplyReview runs a review transition atomically: the question row is
// locked, decide mutates it, and the new state, the log entry and, for
// submissions, a snapshot of the pre-submission content are written together.
func (r *QuestionRepository) ApplyReview(ctx context.Context, id string, decide ReviewFunc) (*model.Question, error) {
	var out *model.Question
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		q, err := scanQuestion(tx.QueryRow(ctx,
			`SELECT `+questionColumns+` FROM questions WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return translate(err, "question")
		}

		before := *q
		review, err := decide(q)
		if err != nil {
			return err
		}

		if review.Action == model.ReviewActionSubmit {
			snapshot, err := json.Marshal(before)
			if err != nil {
				return fmt.Errorf("snapshot question: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO question_versions (question_id, version, snapshot)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (question_id, version) DO UPDATE SET snapshot = EXCLUDED.snapshot, created_at = NOW()`,
				before.ID, before.Version, snapshot); err != nil {
				return fmt.Errorf("insert version: %w", err)
			}
		}

		if err := tx.QueryRow(ctx,
			`UPDATE questions
			 SET status = $1, version = $2, reviewer_id = $3, review_notes = $4, reviewed_at = $5, updated_at = NOW()
			 WHERE id = $6
			 RETURNING updated_at`,
			q.Status, q.Version, q.ReviewerID, q.ReviewNotes, q.ReviewedAt, q.ID,
		).Scan(&q.UpdatedAt); err != nil {
			return fmt.Errorf("update question: %w", err)
		}

		review.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO question_reviews (question_id, version, action, reviewer_id, notes)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			review.QuestionID, review.Version, review.Action, review.ReviewerID, review.Notes,
		).Scan(&review.ID, &review.CreatedAt); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		out = q
		return nil
	})
	return out, err
}

// ReviewHistory lists a question's review log, newest first.
func (r *QuestionRepository) ReviewHistory(ctx context.Context, id string) ([]model.QuestionReview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_id, version, action, reviewer_id, notes, created_at
		 FROM question_reviews WHERE question_id = $1
		 ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.QuestionReview{}
	for rows.Next() {
		var rv model.QuestionReview
		if err := rows.Scan(&rv.ID, &rv.QuestionID, &rv.Version, &rv.Action, &rv.ReviewerID, &rv.Notes, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// VersionHistory lists a question's content snapshots, newest first.
func (r *QuestionRepository) VersionHistory(ctx context.Context, id string) ([]model.QuestionVersion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, version, snapshot, created_at
		 FROM question_versions WHERE question_id = $1
		 ORDER BY version DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.QuestionVersion{}
	for rows.Next() {
		var v model.QuestionVersion
		if err := rows.Scan(&v.QuestionID, &v.Version, &v.Snapshot, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// nullableJSON stores an absent or empty payload as SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

