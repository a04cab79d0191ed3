package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentStats holds a user's running practice totals.
type StudentStats struct {
	UserID           uuid.UUID  `json:"user_id"`
	TotalAnswered    int        `json:"total_answered"`
	TotalCorrect     int        `json:"total_correct"`
	CurrentStreak    int        `json:"current_streak"`
	LastPracticeDate *time.Time `json:"last_practice_date,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	TotalAnswered int       `json:"total_answered"`
	TotalCorrect  int       `json:"total_correct"`
	CurrentStreak int       `json:"current_streak"`
}

// PaperAnalytics summarizes all scored sessions taken against one paper.
type PaperAnalytics struct {
	PaperID           uuid.UUID               `json:"paper_id"`
	ScoredSessions    int                     `json:"scored_sessions"`
	AverageScore      float64                 `json:"average_score"`
	HighestScore      int                     `json:"highest_score"`
	PassRate          float64                 `json:"pass_rate"`
	ScoreDistribution []ScoreBucket           `json:"score_distribution"`
	Questions         []QuestionAnalytics     `json:"questions"`
	KnowledgePoints   []KnowledgePointMastery `json:"knowledge_points"`
}

// ScoreBucket is one band of the score distribution.
type ScoreBucket struct {
	Range      string  `json:"range"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// QuestionAnalytics is the correctness rate of one question across sessions.
type QuestionAnalytics struct {
	QuestionID  string  `json:"question_id"`
	Attempts    int     `json:"attempts"`
	Correct     int     `json:"correct"`
	CorrectRate float64 `json:"correct_rate"`
}

// KnowledgePointMastery is the share of correct answers on questions tagged with a knowledge point.
type KnowledgePointMastery struct {
	KnowledgePointID string  `json:"knowledge_point_id"`
	Attempts         int     `json:"attempts"`
	Mastery          float64 `json:"mastery"`
}
