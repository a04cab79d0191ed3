package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/qbank/exam-platform/internal/config"
)

func TestDraftRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	svc := NewDraftService(rdb, 30*time.Minute)
	ctx := context.Background()
	id := uuid.New()

	empty, err := svc.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if len(empty.Answers) != 0 || empty.Flagged == nil || len(empty.Flagged) != 0 {
		t.Errorf("empty draft = %+v", empty)
	}

	steps := []func() error{
		func() error { return svc.SaveAnswer(ctx, id, "q1", "A") },
		func() error { return svc.SaveAnswer(ctx, id, "q1", "B") },
		func() error { return svc.SaveAnswer(ctx, id, "q2", "Paris") },
		func() error { return svc.SetFlag(ctx, id, "q2", true) },
		func() error { return svc.SetFlag(ctx, id, "q1", true) },
		func() error { return svc.SetFlag(ctx, id, "q2", false) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	d, err := svc.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Answers["q1"] != "B" || d.Answers["q2"] != "Paris" {
		t.Errorf("answers = %v", d.Answers)
	}
	if !slices.Equal(d.Flagged, []string{"q1"}) {
		t.Errorf("flagged = %v, want [q1]", d.Flagged)
	}
	if got := rdb.ttl[config.CacheKey.DraftAnswersKey(id)]; got != 30*time.Minute {
		t.Errorf("answers ttl = %v", got)
	}

	if err := svc.Clear(ctx, id); err != nil {
		t.Fatal(err)
	}
	d, _ = svc.Load(ctx, id)
	if len(d.Answers) != 0 || len(d.Flagged) != 0 {
		t.Errorf("draft after clear = %+v", d)
	}
}
