package exam

import (
	"cmp"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/model"
)

// defaultMaxScore applies to flat question lists and to items without a positive score.
const defaultMaxScore = 1.0

// Entry is one resolved slot of a paper in canonical order.
type Entry struct {
	Section      bool
	SectionTitle string
	QuestionID   string
	MaxScore     float64
}

// ResolveEntries returns the ordered slots to render for a session.
//
// Paper items win when present, in SortOrder. Otherwise the flat question
// list is used, and when that is empty too, the distinct question ids of the
// session's records in record order. A question id appearing more than once
// is kept at its first position only.
func ResolveEntries(paper *model.Paper, session *model.ExamSession) []Entry {
	seen := make(map[string]struct{})
	var entries []Entry
	addQuestion := func(id string, score float64) {
		if _, dup := seen[id]; dup || id == "" {
			return
		}
		seen[id] = struct{}{}
		if score <= 0 {
			score = defaultMaxScore
		}
		entries = append(entries, Entry{QuestionID: id, MaxScore: score})
	}

	switch {
	case paper != nil && paper.HasItems():
		for _, item := range sortedItems(paper.Items) {
			switch item.Type {
			case model.PaperItemSection:
				entries = append(entries, Entry{Section: true, SectionTitle: item.SectionTitle})
			case model.PaperItemQuestion:
				addQuestion(item.QuestionID, item.Score)
			}
		}
	case paper != nil && len(paper.QuestionIDs) > 0:
		for _, id := range paper.QuestionIDs {
			addQuestion(id, defaultMaxScore)
		}
	case session != nil:
		for _, r := range session.Records {
			addQuestion(r.QuestionID, defaultMaxScore)
		}
	}
	return entries
}

// sortedItems orders items by SortOrder, keeping stored order for ties.
func sortedItems(items []model.PaperItem) []model.PaperItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b model.PaperItem) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	return out
}

// ResolveQuestionIDs returns the question ids of ResolveEntries, sections dropped.
func ResolveQuestionIDs(paper *model.Paper, session *model.ExamSession) []string {
	var ids []string
	for _, e := range ResolveEntries(paper, session) {
		if !e.Section {
			ids = append(ids, e.QuestionID)
		}
	}
	return ids
}

// MaxScores returns the max score per resolved question and their sum.
func MaxScores(paper *model.Paper, session *model.ExamSession) (map[string]float64, float64) {
	scores := make(map[string]float64)
	var total float64
	for _, e := range ResolveEntries(paper, session) {
		if e.Section {
			continue
		}
		scores[e.QuestionID] = e.MaxScore
		total += e.MaxScore
	}
	return scores, total
}

func indexQuestions(questions []model.Question) map[string]*model.Question {
	idx := make(map[string]*model.Question, len(questions))
	for i := range questions {
		idx[questions[i].ID] = &questions[i]
	}
	return idx
}

// Assemble builds the view of paper as session sees it.
//
// Generator call order, shared by every mode:
//  1. one Shuffler seeded with session.RandomSeed;
//  2. for each resolved question present in questions, in canonical order,
//     its options are shuffled;
//  3. if the paper has no items, the rendered question list is shuffled.
//
// Missing questions and unparseable option payloads are logged and skipped.
func Assemble(session *model.ExamSession, paper *model.Paper, questions []model.Question, mode model.ViewMode) (*model.ExamView, error) {
	if session == nil {
		return nil, apperr.NotFound("exam session not found")
	}
	if paper == nil {
		return nil, apperr.NotFound("paper %s not found", session.PaperID)
	}

	logger := log.With().
		Str("component", "exam").
		Str("session_id", session.ID.String()).
		Logger()

	idx := indexQuestions(questions)
	rng := NewShuffler(session.RandomSeed)
	review := mode == model.ModeReview

	items := make([]model.ViewItem, 0)
	for _, e := range ResolveEntries(paper, session) {
		if e.Section {
			items = append(items, model.ViewItem{Kind: model.ViewItemSection, SectionTitle: e.SectionTitle})
			continue
		}

		q, ok := idx[e.QuestionID]
		if !ok {
			logger.Debug().Str("question_id", e.QuestionID).Msg("Skipping missing question")
			continue
		}

		opts, err := ParseOptions(q.Options)
		if err != nil {
			logger.Warn().Err(err).Str("question_id", q.ID).Msg("Rendering question without options")
			opts = nil
		}

		item := model.ViewItem{
			Kind:       model.ViewItemQuestion,
			QuestionID: q.ID,
			Type:       q.Type,
			Stem:       q.Stem,
			MaxScore:   e.MaxScore,
			Options:    viewOptions(Shuffle(rng, opts), review),
		}
		if review {
			item.Analysis = q.Analysis
		}
		if rec := session.Record(q.ID); rec != nil {
			answer := rec.UserAnswer
			item.UserAnswer = &answer
			item.AwardedScore = rec.Score
			item.GraderNotes = rec.Notes
			item.IsCorrect = rec.IsCorrect
			item.IsFlagged = rec.IsFlagged
		}
		items = append(items, item)
	}

	if !paper.HasItems() {
		items = Shuffle(rng, items)
	}

	return &model.ExamView{
		SessionID:  session.ID,
		PaperID:    paper.ID,
		PaperTitle: paper.Title,
		Mode:       mode,
		Status:     session.DeriveStatus(),
		Type:       session.Type,
		StartTime:  session.StartTime,
		EndTime:    session.EndTime,
		Score:      session.Score,
		Items:      items,
	}, nil
}

func viewOptions(opts []model.Option, review bool) []model.ViewOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]model.ViewOption, len(opts))
	for i, o := range opts {
		out[i] = model.ViewOption{Key: o.Key, Text: o.Text}
		if review {
			correct := o.IsCorrect
			out[i].IsCorrect = &correct
		}
	}
	return out
}
