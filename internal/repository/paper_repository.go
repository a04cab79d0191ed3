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

// PaperRepository handles paper data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// GetByID retrieves a paper with its flat question list and its items,
// both in stored order.
func (r *PaperRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Paper, error) {
	p := &model.Paper{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, created_by, created_at FROM papers WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, translate(err, "paper")
	}

	if p.QuestionIDs, err = r.questionIDs(ctx, id); err != nil {
		return nil, err
	}
	if p.Items, err = r.items(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PaperRepository) questionIDs(ctx context.Context, paperID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id FROM paper_questions WHERE paper_id = $1 ORDER BY position`, paperID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return nonNil(ids), err
}

func (r *PaperRepository) items(ctx context.Context, paperID uuid.UUID) ([]model.PaperItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_type, COALESCE(question_id, ''), COALESCE(section_title, ''), score::float8, sort_order
		 FROM paper_items WHERE paper_id = $1 ORDER BY sort_order`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.PaperItem{}
	for rows.Next() {
		var it model.PaperItem
		if err := rows.Scan(&it.Type, &it.QuestionID, &it.SectionTitle, &it.Score, &it.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List retrieves a page of papers, newest first. Items are not loaded.
func (r *PaperRepository) List(ctx context.Context, limit, offset int) ([]model.Paper, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM papers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, created_by, created_at FROM papers
		 ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	papers := []model.Paper{}
	for rows.Next() {
		var p model.Paper
		if err := rows.Scan(&p.ID, &p.Title, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		p.QuestionIDs = []string{}
		p.Items = []model.PaperItem{}
		papers = append(papers, p)
	}
	return papers, total, rows.Err()
}

// Create inserts a paper with its flat list and items in one transaction.
func (r *PaperRepository) Create(ctx context.Context, p *model.Paper) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO papers (title, created_by) VALUES ($1, $2) RETURNING id, created_at`,
			p.Title, p.CreatedBy,
		).Scan(&p.ID, &p.CreatedAt); err != nil {
			return fmt.Errorf("insert paper: %w", err)
		}

		if len(p.QuestionIDs) > 0 {
			rows := make([][]any, len(p.QuestionIDs))
			for i, qid := range p.QuestionIDs {
				rows[i] = []any{p.ID, i, qid}
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"paper_questions"},
				[]string{"paper_id", "position", "question_id"}, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("insert paper questions: %w", err)
			}
		}

		if len(p.Items) > 0 {
			rows := make([][]any, len(p.Items))
			for i, it := range p.Items {
				rows[i] = []any{p.ID, it.SortOrder, string(it.Type), nullIfEmpty(it.QuestionID), nullIfEmpty(it.SectionTitle), it.Score}
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"paper_items"},
				[]string{"paper_id", "sort_order", "item_type", "question_id", "section_title", "score"}, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("insert paper items: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a paper. Papers referenced by exam sessions cannot be deleted.
func (r *PaperRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var inUse bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_sessions WHERE paper_id = $1)`, id,
	).Scan(&inUse); err != nil {
		return err
	}
	if inUse {
		return translateInUse("paper")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "paper")
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
