package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qbank/exam-platform/internal/database"
	"github.com/qbank/exam-platform/internal/model"
)

// StudentStatsRepository handles running practice totals.
type StudentStatsRepository struct {
	pool *pgxpool.Pool
}

// NewStudentStatsRepository creates a new StudentStatsRepository.
func NewStudentStatsRepository(pool *pgxpool.Pool) *StudentStatsRepository {
	return &StudentStatsRepository{pool: pool}
}

// Get returns the stats of a user. A user without a row gets zeroed stats.
func (r *StudentStatsRepository) Get(ctx context.Context, userID uuid.UUID) (*model.StudentStats, error) {
	s := &model.StudentStats{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT total_answered, total_correct, current_streak, last_practice_date, updated_at
		 FROM student_stats WHERE user_id = $1`, userID,
	).Scan(&s.TotalAnswered, &s.TotalCorrect, &s.CurrentStreak, &s.LastPracticeDate, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// StatsMutator changes a locked stats row in place. Returning an error
// aborts the transaction.
type StatsMutator func(s *model.StudentStats) error

// UpdateInTx locks the stats row of a user, creating it when missing,
// applies mutate and writes the result back. Concurrent updates for the
// same user are serialized by the row lock.
func (r *StudentStatsRepository) UpdateInTx(ctx context.Context, userID uuid.UUID, mutate StatsMutator) (*model.StudentStats, error) {
	var out *model.StudentStats
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO student_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
			return fmt.Errorf("ensure stats row: %w", err)
		}

		s := &model.StudentStats{UserID: userID}
		if err := tx.QueryRow(ctx,
			`SELECT total_answered, total_correct, current_streak, last_practice_date, updated_at
			 FROM student_stats WHERE user_id = $1 FOR UPDATE`, userID,
		).Scan(&s.TotalAnswered, &s.TotalCorrect, &s.CurrentStreak, &s.LastPracticeDate, &s.UpdatedAt); err != nil {
			return fmt.Errorf("lock stats row: %w", err)
		}

		if err := mutate(s); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE student_stats SET total_answered = $1, total_correct = $2, current_streak = $3,
			   last_practice_date = $4, updated_at = NOW()
			 WHERE user_id = $5`,
			s.TotalAnswered, s.TotalCorrect, s.CurrentStreak, s.LastPracticeDate, userID); err != nil {
			return fmt.Errorf("update stats: %w", err)
		}
		out = s
		return nil
	})
	return out, err
}

// Leaderboard returns the top students by total correct answers.
func (r *StudentStatsRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.user_id, u.name, s.total_answered, s.total_correct, s.current_streak
		 FROM student_stats s
		 JOIN users u ON u.id = s.user_id
		 WHERE u.role = 'STUDENT'
		 ORDER BY s.total_correct DESC, s.total_answered ASC, u.name ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		e := model.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.UserID, &e.Name, &e.TotalAnswered, &e.TotalCorrect, &e.CurrentStreak); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
