package exam

import (
	"errors"
	"testing"
	"time"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/model"
)

var submitTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSubmitHalfCorrect(t *testing.T) {
	paper := flatPaper("q1", "q2")
	session := newSession(paper, 42)

	res, err := Submit(session, paper, fixtureQuestions(), map[string]string{"q1": "a", "q2": "x"}, nil, submitTime)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 50 || res.Correct != 1 || res.Total != 2 {
		t.Errorf("result = %+v, want score 50, 1/2", res)
	}
	if session.Score == nil || *session.Score != 50 {
		t.Errorf("session score = %v, want 50", session.Score)
	}
	if session.EndTime == nil || !session.EndTime.Equal(submitTime) {
		t.Errorf("end time = %v", session.EndTime)
	}
	if session.Status != model.SessionStatusSubmitted {
		t.Errorf("status = %s", session.Status)
	}
}

func TestSubmitAlreadySubmitted(t *testing.T) {
	paper := flatPaper("q1")
	session := newSession(paper, 1)
	end := submitTime
	session.EndTime = &end

	_, err := Submit(session, paper, fixtureQuestions(), map[string]string{"q1": "A"}, nil, submitTime)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestSubmitRecords(t *testing.T) {
	paper := flatPaper("q1", "q2", "q3")
	session := newSession(paper, 1)
	answers := map[string]string{
		"q3":       "long answer",
		"q1":       "A",
		"stranger": "ignored",
	}

	res, err := Submit(session, paper, fixtureQuestions(), answers, []string{"q2", "q3"}, submitTime)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Unanswered questions count towards the denominator.
	if res.Total != 3 || res.Correct != 1 || res.Score != 33 {
		t.Errorf("result = %+v, want 1/3 -> 33", res)
	}

	if len(session.Records) != 3 {
		t.Fatalf("records = %+v", session.Records)
	}
	wantOrder := []string{"q1", "q2", "q3"}
	for i, rec := range session.Records {
		if rec.QuestionID != wantOrder[i] {
			t.Errorf("record %d = %s, want %s", i, rec.QuestionID, wantOrder[i])
		}
	}

	q2 := session.Record("q2")
	if !q2.IsFlagged || q2.UserAnswer != "" || q2.IsCorrect == nil || *q2.IsCorrect {
		t.Errorf("flagged unanswered q2 = %+v", q2)
	}
	q3 := session.Record("q3")
	if q3.IsCorrect != nil {
		t.Errorf("free text answer should be ungraded, got %v", *q3.IsCorrect)
	}
	if !q3.IsFlagged {
		t.Errorf("q3 should be flagged")
	}
	if session.Record("stranger") != nil {
		t.Errorf("answers outside the paper must not produce records")
	}
}

func TestSubmitMultipleChoiceIsOrderSensitive(t *testing.T) {
	questions := []model.Question{{
		ID:   "geo",
		Type: model.QuestionTypeMultipleChoice,
		Options: []byte(`[{"text":"Asia","isCorrect":true},{"text":"Europe"},` +
			`{"text":"Africa","isCorrect":true}]`),
	}}

	tests := []struct {
		answer string
		want   bool
	}{
		{answer: "Asia,Africa", want: true},
		{answer: "asia,AFRICA", want: true},
		// Same set, different segment order: the comparison is a plain string match.
		{answer: "Africa,Asia", want: false},
		{answer: "Asia", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.answer, func(t *testing.T) {
			paper := flatPaper("geo")
			session := newSession(paper, 1)
			if _, err := Submit(session, paper, questions, map[string]string{"geo": tc.answer}, nil, submitTime); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			rec := session.Record("geo")
			if rec.IsCorrect == nil || *rec.IsCorrect != tc.want {
				t.Errorf("isCorrect = %v, want %v", rec.IsCorrect, tc.want)
			}
		})
	}
}

func TestSubmitEmptyPaper(t *testing.T) {
	paper := flatPaper()
	session := newSession(paper, 1)
	res, err := Submit(session, paper, nil, map[string]string{"q1": "A"}, nil, submitTime)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 0 || *session.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
}

func weightedPaper() *model.Paper {
	return itemPaper(
		model.PaperItem{Type: model.PaperItemQuestion, QuestionID: "q1", Score: 30, SortOrder: 0},
		model.PaperItem{Type: model.PaperItemQuestion, QuestionID: "q2", Score: 70, SortOrder: 1},
	)
}

func submittedWeighted(t *testing.T) (*model.ExamSession, *model.Paper) {
	t.Helper()
	paper := weightedPaper()
	session := newSession(paper, 9)
	if _, err := Submit(session, paper, fixtureQuestions(), map[string]string{"q1": "A", "q2": "x"}, nil, submitTime); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return session, paper
}

func TestGradeImplicitAward(t *testing.T) {
	session, paper := submittedWeighted(t)

	if err := Grade(session, paper, nil, submitTime); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if *session.Score != 30 {
		t.Errorf("score = %d, want 30", *session.Score)
	}
	if rec := session.Record("q1"); rec.Score == nil || *rec.Score != 30 {
		t.Errorf("implicit award not written back: %+v", rec)
	}
	if session.Status != model.SessionStatusManuallyRegraded || session.GradedAt == nil {
		t.Errorf("status = %s graded_at = %v", session.Status, session.GradedAt)
	}
}

func TestGradeOverrideWins(t *testing.T) {
	session, paper := submittedWeighted(t)
	overrides := []model.GradeOverride{{QuestionID: "q2", Score: ptr(70.0), Notes: ptr("accepted")}}

	if err := Grade(session, paper, overrides, submitTime); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if *session.Score != 100 {
		t.Errorf("score = %d, want 100", *session.Score)
	}
	if n := session.Record("q2").Notes; n == nil || *n != "accepted" {
		t.Errorf("notes = %v", n)
	}
}

func TestGradeIdempotent(t *testing.T) {
	session, paper := submittedWeighted(t)
	overrides := []model.GradeOverride{{QuestionID: "q2", Score: ptr(35.0)}}

	if err := Grade(session, paper, overrides, submitTime); err != nil {
		t.Fatalf("first Grade: %v", err)
	}
	first := *session.Score
	if err := Grade(session, paper, overrides, submitTime.Add(time.Hour)); err != nil {
		t.Fatalf("second Grade: %v", err)
	}
	if *session.Score != first || first != 65 {
		t.Errorf("scores %d then %d, want 65 twice", first, *session.Score)
	}
}

func TestGradeRoundsOverridesToStoredPrecision(t *testing.T) {
	session, paper := submittedWeighted(t)

	if err := Grade(session, paper, []model.GradeOverride{{QuestionID: "q2", Score: ptr(0.495)}}, submitTime); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if rec := session.Record("q2"); rec.Score == nil || *rec.Score != 0.5 {
		t.Fatalf("q2 score = %v, want 0.5", rec.Score)
	}
	first := *session.Score

	// Reload as the record columns store it, then regrade with notes only.
	for i := range session.Records {
		if sc := session.Records[i].Score; sc != nil {
			stored := RoundScore(*sc)
			session.Records[i].Score = &stored
		}
	}
	if err := Grade(session, paper, []model.GradeOverride{{QuestionID: "q2", Notes: ptr("checked")}}, submitTime.Add(time.Hour)); err != nil {
		t.Fatalf("regrade: %v", err)
	}
	if first != 31 || *session.Score != first {
		t.Errorf("scores %d then %d, want 31 twice", first, *session.Score)
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0.495, 0.5},
		{0.494, 0.49},
		{12.3456, 12.35},
		{7, 7},
		{0, 0},
	}
	for _, tc := range tests {
		if got := RoundScore(tc.in); got != tc.want {
			t.Errorf("RoundScore(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestGradeValidation(t *testing.T) {
	tests := []struct {
		name      string
		overrides []model.GradeOverride
		wantErr   error
	}{
		{name: "negative", overrides: []model.GradeOverride{{QuestionID: "q1", Score: ptr(-1.0)}}, wantErr: apperr.ErrValidation},
		{name: "above max", overrides: []model.GradeOverride{{QuestionID: "q1", Score: ptr(31.0)}}, wantErr: apperr.ErrValidation},
		{name: "unknown question ignored", overrides: []model.GradeOverride{{QuestionID: "nope", Score: ptr(500.0)}}},
		{name: "off paper too large", overrides: []model.GradeOverride{{QuestionID: "gone", Score: ptr(1e9)}}, wantErr: apperr.ErrValidation},
		{name: "off paper", overrides: []model.GradeOverride{{QuestionID: "gone", Score: ptr(5.0)}}},
		{name: "notes only", overrides: []model.GradeOverride{{QuestionID: "q1", Notes: ptr("fine")}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session, paper := submittedWeighted(t)
			session.Records = append(session.Records, model.ExamRecord{QuestionID: "gone", UserAnswer: "B"})
			err := Grade(session, paper, tc.overrides, submitTime)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				if session.GradedAt != nil {
					t.Errorf("failed grade must not touch the session")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGradeRequiresSubmission(t *testing.T) {
	paper := weightedPaper()
	err := Grade(newSession(paper, 1), paper, nil, submitTime)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestGradeZeroMax(t *testing.T) {
	paper := flatPaper()
	session := newSession(paper, 1)
	end := submitTime
	session.EndTime = &end

	if err := Grade(session, paper, nil, submitTime); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if *session.Score != 0 {
		t.Errorf("score = %d, want 0", *session.Score)
	}
}

func TestScoreBounds(t *testing.T) {
	for _, tc := range []struct{ part, whole float64 }{{0, 3}, {3, 3}, {5, 3}, {-1, 3}, {1, 3}, {2, 3}} {
		p := percent(tc.part, tc.whole)
		if p < 0 || p > 100 {
			t.Errorf("percent(%v, %v) = %d out of range", tc.part, tc.whole, p)
		}
	}
	if got := percent(2, 3); got != 67 {
		t.Errorf("percent(2,3) = %d, want 67", got)
	}
}

func TestUpdateStreak(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 15, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		last   *time.Time
		streak int
		now    time.Time
		want   int
	}{
		{name: "first practice", last: nil, streak: 0, now: day(10), want: 1},
		{name: "yesterday", last: ptr(day(9)), streak: 4, now: day(10), want: 5},
		{name: "same day", last: ptr(day(10)), streak: 4, now: day(10).Add(5 * time.Hour), want: 4},
		{name: "gap", last: ptr(day(7)), streak: 4, now: day(10), want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stats := &model.StudentStats{CurrentStreak: tc.streak, LastPracticeDate: tc.last}
			UpdateStreak(stats, tc.now)
			if stats.CurrentStreak != tc.want {
				t.Errorf("streak = %d, want %d", stats.CurrentStreak, tc.want)
			}
			if y, m, d := stats.LastPracticeDate.Date(); y != tc.now.Year() || m != tc.now.Month() || d != tc.now.Day() {
				t.Errorf("last practice = %v", stats.LastPracticeDate)
			}
		})
	}
}

func TestRecordPractice(t *testing.T) {
	stats := &model.StudentStats{TotalAnswered: 10, TotalCorrect: 4}
	RecordPractice(stats, SubmitResult{Total: 5, Correct: 3, Score: 60}, submitTime)
	if stats.TotalAnswered != 15 || stats.TotalCorrect != 7 || stats.CurrentStreak != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
