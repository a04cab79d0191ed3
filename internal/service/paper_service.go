package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/exam"
	"github.com/qbank/exam-platform/internal/model"
	"github.com/qbank/exam-platform/internal/response"
)

const (
	defaultGeneratedTitle = "Generated Paper"
	defaultManualTitle    = "Manual Paper"
)

type paperStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Paper, error)
	List(ctx context.Context, limit, offset int) ([]model.Paper, int, error)
	Create(ctx context.Context, p *model.Paper) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type candidateSource interface {
	Candidates(ctx context.Context, difficulty model.Difficulty) ([]model.Question, error)
}

// PaperService handles paper composition.
type PaperService struct {
	paperRepo    paperStore
	questionRepo candidateSource
	seed         SeedSource
}

// NewPaperService creates a new PaperService.
func NewPaperService(paperRepo paperStore, questionRepo candidateSource, seed SeedSource) *PaperService {
	if seed == nil {
		seed = CryptoSeed
	}
	return &PaperService{paperRepo: paperRepo, questionRepo: questionRepo, seed: seed}
}

// Get retrieves a paper with its items and flat question ids.
func (s *PaperService) Get(ctx context.Context, id uuid.UUID) (*model.Paper, error) {
	return s.paperRepo.GetByID(ctx, id)
}

// List retrieves papers with pagination.
func (s *PaperService) List(ctx context.Context, page, perPage int) ([]model.Paper, *response.Pagination, error) {
	page, perPage, limit, offset := paginate(page, perPage)
	papers, total, err := s.paperRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return papers, pagination(page, perPage, total), nil
}

// Delete removes a paper that no session references.
func (s *PaperService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.paperRepo.Delete(ctx, id)
}

// Create builds a manual paper. When items are given the paper is structured:
// sort order follows list position and the flat id list mirrors the question
// items. Otherwise the flat id list is stored as given.
func (s *PaperService) Create(ctx context.Context, req model.CreatePaperRequest, author uuid.UUID) (*model.Paper, error) {
	p := &model.Paper{
		Title:       titleOr(req.Title, defaultManualTitle),
		CreatedBy:   &author,
		QuestionIDs: []string{},
		Items:       []model.PaperItem{},
	}

	if len(req.Items) > 0 {
		for i, it := range req.Items {
			item := model.PaperItem{Type: it.Type, SortOrder: i}
			switch it.Type {
			case model.PaperItemQuestion:
				item.QuestionID = it.QuestionID
				item.Score = it.Score
				p.QuestionIDs = append(p.QuestionIDs, it.QuestionID)
			case model.PaperItemSection:
				item.SectionTitle = it.SectionTitle
			default:
				return nil, apperr.Validation("unknown item type %q", it.Type)
			}
			p.Items = append(p.Items, item)
		}
	} else {
		p.QuestionIDs = append(p.QuestionIDs, req.QuestionIDs...)
	}

	if err := s.paperRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Generate picks questions at random: first the requested count of each type,
// then any remaining slots from the whole pool, capped at the total.
func (s *PaperService) Generate(ctx context.Context, req model.GeneratePaperRequest, author uuid.UUID) (*model.Paper, error) {
	pool, err := s.questionRepo.Candidates(ctx, req.Difficulty)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, apperr.ErrNoQuestions
	}

	p := &model.Paper{
		Title:       titleOr(req.Title, defaultGeneratedTitle),
		CreatedBy:   &author,
		QuestionIDs: pickQuestions(exam.NewShuffler(s.seed()), pool, req.TypeCounts, req.Total),
		Items:       []model.PaperItem{},
	}
	if err := s.paperRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func pickQuestions(rnd *exam.Shuffler, pool []model.Question, typeCounts map[model.QuestionType]int, total int) []string {
	selected := make([]string, 0, total)
	seen := make(map[string]bool, total)
	add := func(id string) {
		if len(selected) < total && !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}

	if len(typeCounts) > 0 {
		byType := map[model.QuestionType][]model.Question{}
		for _, q := range pool {
			byType[q.Type] = append(byType[q.Type], q)
		}
		types := make([]model.QuestionType, 0, len(typeCounts))
		for t := range typeCounts {
			types = append(types, t)
		}
		slices.Sort(types)

		for _, t := range types {
			picked := exam.Shuffle(rnd, byType[t])
			for i := 0; i < min(typeCounts[t], len(picked)); i++ {
				add(picked[i].ID)
			}
		}
	}

	for _, q := range exam.Shuffle(rnd, pool) {
		add(q.ID)
	}
	return selected
}

func titleOr(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}
