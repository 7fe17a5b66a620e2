package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/dotscaffold/internal/adapters/sqlite"
	"github.com/example/dotscaffold/internal/ports/secondary"
)

func TestRunRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewRunRepository(db)
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	id, err := repo.CreateRun(ctx, &secondary.RunRecord{
		ProjectName: "Demo",
		TargetPath:  "/w/Demo",
		Modes:       "modules=fail-fast",
		SkipRestore: true,
		StartedAt:   started,
	})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	t.Run("new run is active", func(t *testing.T) {
		active, err := repo.FindActiveRun(ctx, "/w/Demo")
		if err != nil {
			t.Fatalf("FindActiveRun failed: %v", err)
		}
		if active == nil || active.ID != id {
			t.Fatalf("active = %+v, want run %d", active, id)
		}
		if active.State != secondary.RunStateRunning {
			t.Errorf("State = %q", active.State)
		}
		if !active.SkipRestore || active.SkipGit {
			t.Errorf("options = restore:%v git:%v", active.SkipRestore, active.SkipGit)
		}
		if !active.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", active.StartedAt, started)
		}
		if !active.FinishedAt.IsZero() {
			t.Errorf("FinishedAt = %v, want zero", active.FinishedAt)
		}
	})

	t.Run("steps keep recording order", func(t *testing.T) {
		steps := []*secondary.StepRecord{
			{RunID: id, Phase: "solution", StepID: "solution", Status: "ok", Duration: 1500 * time.Millisecond},
			{RunID: id, Phase: "modules", StepID: "create:Demo.API", Status: "failed", Message: "exit 1", ErrorKind: "E_TOOL_INVOCATION"},
			{RunID: id, Phase: "register", StepID: "register:Demo.API", Status: "skipped", Message: "needs module:API"},
		}
		for _, s := range steps {
			if err := repo.RecordStep(ctx, s); err != nil {
				t.Fatalf("RecordStep failed: %v", err)
			}
		}

		got, err := repo.ListSteps(ctx, id)
		if err != nil {
			t.Fatalf("ListSteps failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d steps, want 3", len(got))
		}
		if got[0].Duration != 1500*time.Millisecond || got[0].Message != "" {
			t.Errorf("first step = %+v", got[0])
		}
		if got[1].ErrorKind != "E_TOOL_INVOCATION" || got[2].StepID != "register:Demo.API" {
			t.Errorf("steps = %+v, %+v", got[1], got[2])
		}
	})

	t.Run("finished run is no longer active", func(t *testing.T) {
		finished := started.Add(time.Minute)
		if err := repo.FinishRun(ctx, id, secondary.RunStatePartiallyCompleted, finished); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}

		active, err := repo.FindActiveRun(ctx, "/w/Demo")
		if err != nil {
			t.Fatalf("FindActiveRun failed: %v", err)
		}
		if active != nil {
			t.Errorf("active = %+v, want nil", active)
		}

		runs, err := repo.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 1 || !runs[0].FinishedAt.Equal(finished) || runs[0].Modes != "modules=fail-fast" {
			t.Errorf("runs = %+v", runs)
		}
	})
}

func TestRunRepository_FinishUnknownRun(t *testing.T) {
	repo := sqlite.NewRunRepository(setupTestDB(t))
	if err := repo.FinishRun(context.Background(), 99, secondary.RunStateDone, time.Now()); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestRunRepository_InvalidStateRejected(t *testing.T) {
	repo := sqlite.NewRunRepository(setupTestDB(t))
	ctx := context.Background()

	id, err := repo.CreateRun(ctx, &secondary.RunRecord{ProjectName: "Demo", TargetPath: "/w/Demo"})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := repo.FinishRun(ctx, id, "exploded", time.Now()); err == nil {
		t.Error("expected CHECK constraint to reject unknown state")
	}
}

func TestRunRepository_ListRunsNewestFirstWithLimit(t *testing.T) {
	repo := sqlite.NewRunRepository(setupTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := repo.CreateRun(ctx, &secondary.RunRecord{ProjectName: name, TargetPath: "/w/" + name}); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ProjectName != "C" || runs[1].ProjectName != "B" {
		t.Errorf("runs = %v, %v", runs[0].ProjectName, runs[1].ProjectName)
	}
}

func TestRunRepository_StepsRequireRun(t *testing.T) {
	repo := sqlite.NewRunRepository(setupTestDB(t))
	err := repo.RecordStep(context.Background(), &secondary.StepRecord{RunID: 42, Phase: "git", StepID: "git", Status: "ok"})
	if err == nil {
		t.Error("expected foreign key violation")
	}
}
