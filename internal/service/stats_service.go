package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/model"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type leaderboardStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.StudentStats, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// StatsService exposes student practice statistics.
type StatsService struct {
	statsRepo leaderboardStore
}

// NewStatsService creates a new StatsService.
func NewStatsService(statsRepo leaderboardStore) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// Mine returns the caller's running totals. Users who never submitted get zeros.
func (s *StatsService) Mine(ctx context.Context, userID uuid.UUID) (*model.StudentStats, error) {
	return s.statsRepo.Get(ctx, userID)
}

// Leaderboard returns the top students by correct answers.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit < 1 {
		limit = defaultLeaderboardSize
	}
	return s.statsRepo.Leaderboard(ctx, min(limit, maxLeaderboardSize))
}
