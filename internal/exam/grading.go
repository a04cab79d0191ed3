package exam

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/model"
)

// SubmitResult summarizes an auto-grade pass.
type SubmitResult struct {
	Total   int
	Correct int
	Score   int
}

// Submit closes an in-progress session and auto-grades it.
//
// A record is built for every resolved question that was answered or
// flagged. Questions with options are graded by a case-insensitive match of
// the raw answer against CorrectAnswer; this is a plain string comparison,
// so multi-select segments must follow canonical option order. Questions
// without options get a nil IsCorrect and wait for manual grading.
//
// The score denominator is the number of resolved questions found in
// questions, answered or not.
func Submit(session *model.ExamSession, paper *model.Paper, questions []model.Question, answers map[string]string, flagged []string, now time.Time) (SubmitResult, error) {
	if session.EndTime != nil {
		return SubmitResult{}, apperr.ErrAlreadySubmitted
	}

	flags := make(map[string]bool, len(flagged))
	for _, id := range flagged {
		flags[id] = true
	}

	idx := indexQuestions(questions)
	var res SubmitResult
	records := make([]model.ExamRecord, 0, len(answers))

	for _, id := range ResolveQuestionIDs(paper, session) {
		q, ok := idx[id]
		if !ok {
			continue
		}
		res.Total++

		answer, answered := answers[id]
		if !answered && !flags[id] {
			continue
		}

		rec := model.ExamRecord{
			QuestionID: id,
			UserAnswer: answer,
			IsFlagged:  flags[id],
		}
		rec.IsCorrect = autoGrade(q, answer)
		if rec.IsCorrect != nil && *rec.IsCorrect {
			res.Correct++
		}
		records = append(records, rec)
	}

	if res.Total > 0 {
		res.Score = percent(float64(res.Correct), float64(res.Total))
	}

	end := now
	session.Records = records
	session.EndTime = &end
	session.Score = &res.Score
	session.Status = session.DeriveStatus()
	return res, nil
}

func autoGrade(q *model.Question, answer string) *bool {
	opts, err := ParseOptions(q.Options)
	if err != nil {
		log.Warn().
			Str("component", "exam").
			Str("question_id", q.ID).
			Err(err).
			Msg("Options unreadable, marking answer incorrect")
		wrong := false
		return &wrong
	}
	if len(opts) == 0 {
		return nil
	}
	correct := strings.EqualFold(answer, CorrectAnswer(opts))
	return &correct
}

// Grade applies manual overrides to a submitted session and recomputes its score.
//
// Overrides replace the score and notes of the matching record; ids without
// a record are ignored. A record without an explicit score that is marked
// correct is awarded its question's max score, which is written back so the
// outcome is visible and repeated runs are stable. Records for questions no
// longer on the paper contribute nothing.
func Grade(session *model.ExamSession, paper *model.Paper, overrides []model.GradeOverride, now time.Time) error {
	if session.EndTime == nil {
		return apperr.ErrNotSubmitted
	}

	maxScores, totalMax := MaxScores(paper, session)

	for _, o := range overrides {
		if o.Score == nil || session.Record(o.QuestionID) == nil {
			continue
		}
		if *o.Score < 0 || math.IsNaN(*o.Score) {
			return apperr.Validation("score for question %s must not be negative", o.QuestionID)
		}
		limit, onPaper := maxScores[o.QuestionID]
		if !onPaper {
			limit = MaxRecordScore
		}
		if RoundScore(*o.Score) > limit {
			return apperr.Validation("score for question %s exceeds max %.2f", o.QuestionID, limit)
		}
	}

	for _, o := range overrides {
		rec := session.Record(o.QuestionID)
		if rec == nil {
			continue
		}
		if o.Score != nil {
			s := RoundScore(*o.Score)
			rec.Score = &s
		}
		if o.Notes != nil {
			n := *o.Notes
			rec.Notes = &n
		}
	}

	var awarded float64
	for i := range session.Records {
		rec := &session.Records[i]
		limit, onPaper := maxScores[rec.QuestionID]
		if !onPaper {
			continue
		}
		switch {
		case rec.Score != nil:
			awarded += *rec.Score
		case rec.IsCorrect != nil && *rec.IsCorrect:
			award := limit
			rec.Score = &award
			awarded += award
		}
	}

	score := 0
	if totalMax > 0 {
		score = percent(awarded, totalMax)
	}

	graded := now
	session.Score = &score
	session.GradedAt = &graded
	session.Status = session.DeriveStatus()
	return nil
}

// MaxRecordScore is the largest score a record column holds.
const MaxRecordScore = 999999.99

// RoundScore rounds a record score to the cents it is stored with, so a
// score recomputed from stored records matches the one computed at grade time.
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent returns round(100*part/whole) clamped to [0,100].
func percent(part, whole float64) int {
	p := int(math.Round(100 * part / whole))
	return min(max(p, 0), 100)
}

// RecordPractice adds a finished session to a user's running totals.
func RecordPractice(stats *model.StudentStats, res SubmitResult, now time.Time) {
	stats.TotalAnswered += res.Total
	stats.TotalCorrect += res.Correct
	UpdateStreak(stats, now)
	stats.UpdatedAt = now
}

// UpdateStreak advances the daily streak for a practice made at now.
// Practising the day after the last practice extends the streak, the same
// day leaves it alone, anything else restarts it at one.
func UpdateStreak(stats *model.StudentStats, now time.Time) {
	today := civilDate(now)
	if stats.LastPracticeDate == nil {
		stats.CurrentStreak = 1
		stats.LastPracticeDate = &today
		return
	}

	last := civilDate(*stats.LastPracticeDate)
	switch days := int(today.Sub(last).Hours() / 24); {
	case days <= 0:
		return
	case days == 1:
		stats.CurrentStreak++
	default:
		stats.CurrentStreak = 1
	}
	stats.LastPracticeDate = &today
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
