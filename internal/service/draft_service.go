package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/qbank/exam-platform/internal/config"
)

// draftCache is the subset of the Redis client used for autosaved drafts.
type draftCache interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Draft is the autosaved, not yet submitted state of a session.
type Draft struct {
	Answers map[string]string `json:"answers"`
	Flagged []string          `json:"flagged"`
}

// DraftService keeps in-progress answers in Redis until the session is submitted.
// Every write refreshes the TTL so abandoned drafts expire on their own.
type DraftService struct {
	rdb draftCache
	ttl time.Duration
}

// NewDraftService creates a new DraftService.
func NewDraftService(rdb draftCache, ttl time.Duration) *DraftService {
	return &DraftService{rdb: rdb, ttl: ttl}
}

// SaveAnswer stores one answer, overwriting any earlier one for the question.
func (s *DraftService) SaveAnswer(ctx context.Context, sessionID uuid.UUID, questionID, answer string) error {
	key := config.CacheKey.DraftAnswersKey(sessionID)
	if err := s.rdb.HSet(ctx, key, questionID, answer).Err(); err != nil {
		return fmt.Errorf("save draft answer: %w", err)
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

// SetFlag marks or unmarks a question for later review.
func (s *DraftService) SetFlag(ctx context.Context, sessionID uuid.UUID, questionID string, flagged bool) error {
	key := config.CacheKey.DraftFlagsKey(sessionID)
	var err error
	if flagged {
		err = s.rdb.SAdd(ctx, key, questionID).Err()
	} else {
		err = s.rdb.SRem(ctx, key, questionID).Err()
	}
	if err != nil {
		return fmt.Errorf("save draft flag: %w", err)
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

// Load returns the current draft. A missing draft is empty, not an error.
func (s *DraftService) Load(ctx context.Context, sessionID uuid.UUID) (*Draft, error) {
	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.DraftAnswersKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load draft answers: %w", err)
	}
	flagged, err := s.rdb.SMembers(ctx, config.CacheKey.DraftFlagsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load draft flags: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}
	slices.Sort(flagged)
	return &Draft{Answers: answers, Flagged: nonNilStrings(flagged)}, nil
}

// Clear drops the draft of a session.
func (s *DraftService) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return s.rdb.Del(ctx,
		config.CacheKey.DraftAnswersKey(sessionID),
		config.CacheKey.DraftFlagsKey(sessionID),
	).Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
