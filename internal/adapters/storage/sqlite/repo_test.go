package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRepository_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	session, err := domain.NewSession("s1", "Dana", domain.ModeValidated, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	loaded, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if loaded.PlayerName != "Dana" || loaded.Mode != domain.ModeValidated || !loaded.StartedAt.Equal(now) {
		t.Fatalf("unexpected loaded session %+v", loaded)
	}

	if err := session.Advance(domain.RoundLOB, now.Add(time.Minute)); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if err := repo.UpdateSession(ctx, session); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}
	loaded, err = repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if loaded.Round != domain.RoundLOB {
		t.Fatalf("expected round 2, got %d", loaded.Round)
	}

	if _, err := repo.GetSession(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	missing := session
	missing.ID = "missing"
	if err := repo.UpdateSession(ctx, missing); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestRepository_RoundResultsUpsertAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	session, err := domain.NewSession("s1", "Dana", domain.ModePlayer, now)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	schedule, err := domain.BuildSchedule(domain.ScheduleInput{
		TotalLength:      15840,
		MobilizationDays: 14,
		Buffer:           5,
		Activities:       domain.DefaultCatalog().Crews,
	})
	if err != nil {
		t.Fatalf("BuildSchedule() error = %v", err)
	}
	cost, err := domain.AggregateCost(domain.CostInput{
		MobilizationCost: 25000,
		IndirectRate:     0.3,
		ProfitRate:       0.05,
		Lines:            schedule.CostLines(),
	})
	if err != nil {
		t.Fatalf("AggregateCost() error = %v", err)
	}

	optimize := domain.RoundResult{
		SessionID:     "s1",
		Round:         domain.RoundOptimize,
		Buffer:        5,
		Rows:          domain.RowsFromSchedule(schedule),
		End:           schedule.End,
		Cost:          cost,
		HasCost:       true,
		Constraint:    domain.Evaluate(schedule.End, cost.Total, 55, 550000),
		HasConstraint: true,
		RecordedAt:    now,
	}
	gantt := domain.RoundResult{SessionID: "s1", Round: domain.RoundGantt, End: 200, RecordedAt: now}
	for _, result := range []domain.RoundResult{optimize, gantt} {
		if err := repo.UpsertRoundResult(ctx, result); err != nil {
			t.Fatalf("UpsertRoundResult() error = %v", err)
		}
	}
	gantt.End = 174
	gantt.Correct = true
	if err := repo.UpsertRoundResult(ctx, gantt); err != nil {
		t.Fatalf("UpsertRoundResult() error = %v", err)
	}

	results, err := repo.ListRoundResults(ctx, "s1")
	if err != nil {
		t.Fatalf("ListRoundResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Round != domain.RoundGantt || results[0].End != 174 || !results[0].Correct {
		t.Fatalf("expected replaced gantt result first, got %+v", results[0])
	}
	got := results[1]
	if got.Cost.Total != 692601 || !got.HasConstraint || got.Constraint.Pass || got.Constraint.DurationOK {
		t.Fatalf("unexpected optimize result %+v", got)
	}
	if len(got.Rows) != 3 || got.Rows[2].Start != 49 || got.Rows[2].Rule != domain.BufferRuleDelayed {
		t.Fatalf("unexpected decoded rows %+v", got.Rows)
	}

	orphan := domain.RoundResult{SessionID: "missing", Round: domain.RoundGantt, RecordedAt: now}
	if err := repo.UpsertRoundResult(ctx, orphan); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestOpenInMemoryIsolatesDatabases(t *testing.T) {
	ctx := context.Background()
	a := openTestRepo(t)
	b := openTestRepo(t)
	if a.Name() == b.Name() {
		t.Fatalf("expected unique database names, got %q", a.Name())
	}
	session, err := domain.NewSession("s1", "Dana", domain.ModePlayer, time.Now())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if err := a.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, err := b.GetSession(ctx, "s1"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected isolated databases, got %v", err)
	}
}

func TestRepositoryImplementsResultStore(t *testing.T) {
	var _ app.ResultStore = openTestRepo(t)
}
