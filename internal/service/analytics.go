package service

import (
	"math"
	"slices"
	"strings"

	"github.com/qbank/exam-platform/internal/exam"
	"github.com/qbank/exam-platform/internal/model"
)

const passingScore = 60

var scoreBands = []struct {
	label string
	upper int
}{
	{"0-59", 59},
	{"60-69", 69},
	{"70-79", 79},
	{"80-89", 89},
	{"90-100", 100},
}

// buildAnalytics summarizes scored sessions of a paper. Only records with a
// decided IsCorrect count as attempts. Questions are ordered hardest first.
func buildAnalytics(paper *model.Paper, sessions []model.ExamSession, questions []model.Question) *model.PaperAnalytics {
	out := &model.PaperAnalytics{
		PaperID:           paper.ID,
		ScoreDistribution: make([]model.ScoreBucket, len(scoreBands)),
		Questions:         []model.QuestionAnalytics{},
		KnowledgePoints:   []model.KnowledgePointMastery{},
	}
	for i, b := range scoreBands {
		out.ScoreDistribution[i].Range = b.label
	}

	var sum, passed int
	for _, s := range sessions {
		if s.Score == nil {
			continue
		}
		score := *s.Score
		out.ScoredSessions++
		sum += score
		out.HighestScore = max(out.HighestScore, score)
		if score >= passingScore {
			passed++
		}
		for i, b := range scoreBands {
			if score <= b.upper || i == len(scoreBands)-1 {
				out.ScoreDistribution[i].Count++
				break
			}
		}
	}
	if out.ScoredSessions == 0 {
		return out
	}

	n := float64(out.ScoredSessions)
	out.AverageScore = round2(float64(sum) / n)
	out.PassRate = round2(100 * float64(passed) / n)
	for i := range out.ScoreDistribution {
		out.ScoreDistribution[i].Percentage = round2(100 * float64(out.ScoreDistribution[i].Count) / n)
	}

	onPaper := map[string]*model.Question{}
	for i := range questions {
		onPaper[questions[i].ID] = &questions[i]
	}
	order := exam.ResolveQuestionIDs(paper, nil)

	perQuestion := map[string]*model.QuestionAnalytics{}
	type tally struct{ attempts, correct int }
	perPoint := map[string]*tally{}

	for _, s := range sessions {
		if s.Score == nil {
			continue
		}
		for _, rec := range s.Records {
			q, ok := onPaper[rec.QuestionID]
			if !ok || rec.IsCorrect == nil {
				continue
			}
			qa := perQuestion[q.ID]
			if qa == nil {
				qa = &model.QuestionAnalytics{QuestionID: q.ID}
				perQuestion[q.ID] = qa
			}
			qa.Attempts++
			if *rec.IsCorrect {
				qa.Correct++
			}
			for _, kp := range q.KnowledgePointIDs {
				t := perPoint[kp]
				if t == nil {
					t = &tally{}
					perPoint[kp] = t
				}
				t.attempts++
				if *rec.IsCorrect {
					t.correct++
				}
			}
		}
	}

	for _, id := range order {
		qa, ok := perQuestion[id]
		if !ok {
			continue
		}
		qa.CorrectRate = round2(100 * float64(qa.Correct) / float64(qa.Attempts))
		out.Questions = append(out.Questions, *qa)
	}
	slices.SortStableFunc(out.Questions, func(a, b model.QuestionAnalytics) int {
		switch {
		case a.CorrectRate < b.CorrectRate:
			return -1
		case a.CorrectRate > b.CorrectRate:
			return 1
		}
		return 0
	})

	for kp, t := range perPoint {
		out.KnowledgePoints = append(out.KnowledgePoints, model.KnowledgePointMastery{
			KnowledgePointID: kp,
			Attempts:         t.attempts,
			Mastery:          round2(100 * float64(t.correct) / float64(t.attempts)),
		})
	}
	slices.SortFunc(out.KnowledgePoints, func(a, b model.KnowledgePointMastery) int {
		return strings.Compare(a.KnowledgePointID, b.KnowledgePointID)
	})

	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
