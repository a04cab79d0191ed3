package service

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/repository"
)

// ────────────────────────────────────────────────────────────────────────────
// Stores
// ────────────────────────────────────────────────────────────────────────────

type fakeSessions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.ExamSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[uuid.UUID]*model.ExamSession{}}
}

func cloneSession(s *model.ExamSession) *model.ExamSession {
	c := *s
	c.Records = slices.Clone(s.Records)
	if c.Records == nil {
		c.Records = []model.ExamRecord{}
	}
	return &c
}

func (f *fakeSessions) Create(_ context.Context, s *model.ExamSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.StartTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.Status = model.SessionStatusInProgress
	s.Records = []model.ExamRecord{}
	f.rows[s.ID] = cloneSession(s)
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("exam session not found")
	}
	return cloneSession(s), nil
}

func (f *fakeSessions) List(_ context.Context, filter model.ExamSessionFilter, limit, offset int) ([]model.ExamSession, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.ExamSession
	for _, s := range f.rows {
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if filter.PaperID != nil && s.PaperID != *filter.PaperID {
			continue
		}
		all = append(all, *cloneSession(s))
	}
	total := len(all)
	if offset >= total {
		return []model.ExamSession{}, total, nil
	}
	return all[offset:min(offset+limit, total)], total, nil
}

func (f *fakeSessions) UpdateInTx(_ context.Context, id uuid.UUID, mutate repository.SessionMutator) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("exam session not found")
	}
	work := cloneSession(s)
	if err := mutate(work); err != nil {
		return nil, err
	}
	work.Status = work.DeriveStatus()
	f.rows[id] = cloneSession(work)
	return work, nil
}

func (f *fakeSessions) ScoredByPaper(_ context.Context, paperID uuid.UUID) ([]model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ExamSession{}
	for _, s := range f.rows {
		if s.PaperID == paperID && s.Score != nil {
			out = append(out, *cloneSession(s))
		}
	}
	return out, nil
}

type fakePapers struct {
	rows    map[uuid.UUID]*model.Paper
	created []*model.Paper
	inUse   map[uuid.UUID]bool
}

func newFakePapers(papers ...*model.Paper) *fakePapers {
	f := &fakePapers{rows: map[uuid.UUID]*model.Paper{}, inUse: map[uuid.UUID]bool{}}
	for _, p := range papers {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakePapers) GetByID(_ context.Context, id uuid.UUID) (*model.Paper, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("paper not found")
	}
	return p, nil
}

func (f *fakePapers) List(_ context.Context, limit, offset int) ([]model.Paper, int, error) {
	out := []model.Paper{}
	for _, p := range f.rows {
		out = append(out, *p)
	}
	total := len(out)
	if offset >= total {
		return []model.Paper{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (f *fakePapers) Create(_ context.Context, p *model.Paper) error {
	p.ID = uuid.New()
	f.rows[p.ID] = p
	f.created = append(f.created, p)
	return nil
}

func (f *fakePapers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return apperr.NotFound("paper not found")
	}
	if f.inUse[id] {
		return apperr.Conflict("paper is referenced by exam sessions")
	}
	delete(f.rows, id)
	return nil
}

type fakeQuestions struct {
	rows     map[string]*model.Question
	reviews  []model.QuestionReview
	versions []model.QuestionVersion
}

func newFakeQuestions(questions ...model.Question) *fakeQuestions {
	f := &fakeQuestions{rows: map[string]*model.Question{}}
	for i := range questions {
		q := questions[i]
		f.rows[q.ID] = &q
	}
	return f
}

func (f *fakeQuestions) GetByID(_ context.Context, id string) (*model.Question, error) {
	q, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("question not found")
	}
	c := *q
	return &c, nil
}

func (f *fakeQuestions) ListByIDs(_ context.Context, ids []string) ([]model.Question, error) {
	out := []model.Question{}
	for _, id := range ids {
		if q, ok := f.rows[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) List(_ context.Context, filter model.QuestionFilter, limit, offset int) ([]model.Question, int, error) {
	out := []model.Question{}
	for _, q := range f.rows {
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, *q)
	}
	total := len(out)
	if offset >= total {
		return []model.Question{}, total, nil
	}
	return out[offset:min(offset+limit, total)], total, nil
}

func (f *fakeQuestions) Candidates(_ context.Context, difficulty model.Difficulty) ([]model.Question, error) {
	out := []model.Question{}
	for _, q := range f.rows {
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		out = append(out, model.Question{ID: q.ID, Type: q.Type})
	}
	slices.SortFunc(out, func(a, b model.Question) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *fakeQuestions) Create(_ context.Context, q *model.Question) error {
	q.ID = uuid.NewString()
	q.Status = model.QuestionStatusDraft
	q.Version = 1
	c := *q
	f.rows[q.ID] = &c
	return nil
}

func (f *fakeQuestions) Update(_ context.Context, q *model.Question) error {
	if _, ok := f.rows[q.ID]; !ok {
		return apperr.NotFound("question not found")
	}
	c := *q
	f.rows[q.ID] = &c
	return nil
}

func (f *fakeQuestions) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return apperr.NotFound("question not found")
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeQuestions) ApplyReview(_ context.Context, id string, decide repository.ReviewFunc) (*model.Question, error) {
	stored, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("question not found")
	}
	work := *stored
	before := *stored
	review, err := decide(&work)
	if err != nil {
		return nil, err
	}
	if review.Action == model.ReviewActionSubmit {
		snap, _ := json.Marshal(before)
		f.versions = append(f.versions, model.QuestionVersion{QuestionID: id, Version: before.Version, Snapshot: snap})
	}
	review.QuestionID = id
	review.ID = int64(len(f.reviews) + 1)
	f.reviews = append(f.reviews, *review)
	f.rows[id] = &work
	out := work
	return &out, nil
}

func (f *fakeQuestions) ReviewHistory(_ context.Context, id string) ([]model.QuestionReview, error) {
	out := []model.QuestionReview{}
	for _, r := range f.reviews {
		if r.QuestionID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeQuestions) VersionHistory(_ context.Context, id string) ([]model.QuestionVersion, error) {
	out := []model.QuestionVersion{}
	for _, v := range f.versions {
		if v.QuestionID == id {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeUsers struct {
	rows map[uuid.UUID]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{rows: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.rows {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.rows {
		if existing.Username == u.Username {
			return apperr.Conflict("user already exists")
		}
	}
	u.ID = uuid.New()
	f.rows[u.ID] = u
	return nil
}

type fakeStats struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.StudentStats
	saveErr error
}

func newFakeStats() *fakeStats {
	return &fakeStats{rows: map[uuid.UUID]*model.StudentStats{}}
}

func (f *fakeStats) Get(_ context.Context, userID uuid.UUID) (*model.StudentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[userID]; ok {
		c := *s
		return &c, nil
	}
	return &model.StudentStats{UserID: userID}, nil
}

func (f *fakeStats) UpdateInTx(_ context.Context, userID uuid.UUID, mutate repository.StatsMutator) (*model.StudentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	c := model.StudentStats{UserID: userID}
	if s, ok := f.rows[userID]; ok {
		c = *s
	}
	if err := mutate(&c); err != nil {
		return nil, err
	}
	f.rows[userID] = &c
	out := c
	return &out, nil
}

func (f *fakeStats) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	out := []model.LeaderboardEntry{}
	for _, s := range f.rows {
		out = append(out, model.LeaderboardEntry{UserID: s.UserID, TotalCorrect: s.TotalCorrect})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type observed struct {
	started, submitted, graded int
	lastScore                  int
}

func (o *observed) ExamStarted(model.ExamType) { o.started++ }
func (o *observed) ExamSubmitted(_ model.ExamType, score int) {
	o.submitted++
	o.lastScore = score
}
func (o *observed) ExamGraded() { o.graded++ }

// ────────────────────────────────────────────────────────────────────────────
// Redis
// ────────────────────────────────────────────────────────────────────────────

// fakeRedis implements the string, hash and set commands the services use.
type fakeRedis struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	sets    map[string]map[string]bool
	ttl     map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
		sets:    map[string]map[string]bool{},
		ttl:     map[string]time.Duration{},
	}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = value.(string)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		_, s := f.strings[k]
		_, h := f.hashes[k]
		_, m := f.sets[k]
		if s || h || m {
			n++
		}
		delete(f.strings, k)
		delete(f.hashes, k)
		delete(f.sets, k)
		delete(f.ttl, k)
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := f.hashes[key]
	if h == nil {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sets[key]
	if s == nil {
		s = map[string]bool{}
		f.sets[key] = s
	}
	for _, m := range members {
		s[m.(string)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.sets[key], m.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// ────────────────────────────────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────────────────────────────────

func ptr[T any](v T) *T { return &v }

func fixtureQuestions() []model.Question {
	return []model.Question{
		{
			ID:      "q1",
			Type:    model.QuestionTypeSingleChoice,
			Stem:    "2 + 2 = ?",
			Options: json.RawMessage(`[{"key":"A","text":"4","isCorrect":true},{"key":"B","text":"5","isCorrect":false}]`),
			Status:  model.QuestionStatusApproved,
		},
		{
			ID:                "q2",
			Type:              model.QuestionTypeTrueFalse,
			Stem:              "The earth is flat.",
			Options:           json.RawMessage(`[{"text":"True","isCorrect":false},{"text":"False","isCorrect":true}]`),
			KnowledgePointIDs: []string{"kp-geo"},
			Status:            model.QuestionStatusApproved,
		},
		{
			ID:                "q3",
			Type:              model.QuestionTypeEssay,
			Stem:              "Explain heat transfer.",
			Analysis:          "Mention convection.",
			KnowledgePointIDs: []string{"kp-geo", "kp-physics"},
			Status:            model.QuestionStatusApproved,
		},
	}
}

func fixturePaper() *model.Paper {
	return &model.Paper{
		ID:          uuid.New(),
		Title:       "Weekly quiz",
		QuestionIDs: []string{"q1", "q2", "q3"},
	}
}
