package exam

import (
	"time"

	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/model"
)

func fixtureQuestions() []model.Question {
	return []model.Question{
		{
			ID:      "q1",
			Type:    model.QuestionTypeSingleChoice,
			Stem:    "Largest continent?",
			Options: []byte(`[{"key":"A","text":"A","isCorrect":true},{"key":"B","text":"B"},{"key":"C","text":"C"},{"key":"D","text":"D"}]`),
		},
		{
			ID:      "q2",
			Type:    model.QuestionTypeSingleChoice,
			Stem:    "Pick y",
			Options: []byte(`[{"text":"x"},{"text":"y","isCorrect":true},{"text":"z"}]`),
		},
		{
			ID:       "q3",
			Type:     model.QuestionTypeEssay,
			Stem:     "Explain plate tectonics.",
			Analysis: "Mention convection.",
		},
	}
}

func flatPaper(ids ...string) *model.Paper {
	return &model.Paper{ID: uuid.New(), Title: "Flat", QuestionIDs: ids}
}

func itemPaper(items ...model.PaperItem) *model.Paper {
	return &model.Paper{ID: uuid.New(), Title: "Structured", Items: items}
}

func newSession(paper *model.Paper, seed int64) *model.ExamSession {
	return &model.ExamSession{
		ID:         uuid.New(),
		PaperID:    paper.ID,
		UserID:     uuid.New(),
		Type:       model.ExamTypeExam,
		RandomSeed: seed,
		StartTime:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Status:     model.SessionStatusInProgress,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func questionOrder(view *model.ExamView) []string {
	var ids []string
	for _, it := range view.Items {
		if it.Kind == model.ViewItemQuestion {
			ids = append(ids, it.QuestionID)
		}
	}
	return ids
}

func optionTexts(item model.ViewItem) []string {
	var out []string
	for _, o := range item.Options {
		out = append(out, o.Text)
	}
	return out
}

func findItem(view *model.ExamView, questionID string) (model.ViewItem, bool) {
	for _, it := range view.Items {
		if it.QuestionID == questionID {
			return it, true
		}
	}
	return model.ViewItem{}, false
}
