package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/example/dotscaffold/internal/core/layout"
	"github.com/example/dotscaffold/internal/core/scaffold"
	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/gitrepo"
	"github.com/example/dotscaffold/internal/logging"
	"github.com/example/dotscaffold/internal/materialize"
	"github.com/example/dotscaffold/internal/orchestrator"
	"github.com/example/dotscaffold/internal/ports/primary"
	"github.com/example/dotscaffold/internal/ports/secondary"
	"github.com/example/dotscaffold/internal/skeleton"
	scaffoldtmpl "github.com/example/dotscaffold/internal/templates/scaffold"
)

// RepoInitializer creates the project's git repository.
type RepoInitializer interface {
	Init(ctx context.Context, root string) (*gitrepo.Result, error)
}

// ScaffoldServiceImpl implements the ScaffoldService interface.
type ScaffoldServiceImpl struct {
	orchestrator *orchestrator.Orchestrator
	repo         RepoInitializer
	journal      secondary.RunJournal // optional
	log          *logging.Logger
	now          func() time.Time
}

var _ primary.ScaffoldService = (*ScaffoldServiceImpl)(nil)

// NewScaffoldService creates a new ScaffoldService with injected dependencies.
// journal may be nil, in which case runs are not recorded.
func NewScaffoldService(orch *orchestrator.Orchestrator, repo RepoInitializer, journal secondary.RunJournal, log *logging.Logger) *ScaffoldServiceImpl {
	if log == nil {
		log = logging.Discard()
	}
	return &ScaffoldServiceImpl{
		orchestrator: orch,
		repo:         repo,
		journal:      journal,
		log:          log,
		now:          time.Now,
	}
}

// run carries the state of one Scaffold call.
type run struct {
	id     int64
	opts   primary.ScaffoldOptions
	report *primary.ScaffoldReport
	stop   *stopInfo
}

type stopInfo struct {
	phase scaffold.Phase
}

// Scaffold validates req and builds the project tree stage by stage:
// skeleton, toolchain, templates, repository. Nothing is rolled back.
func (s *ScaffoldServiceImpl) Scaffold(ctx context.Context, req primary.ScaffoldRequest, opts primary.ScaffoldOptions) (*primary.ScaffoldReport, error) {
	l := layout.New(req.RootPath, req.ProjectName)
	r := &run{
		opts: opts,
		report: &primary.ScaffoldReport{
			State:      primary.StateValidatingInput,
			OutputPath: l.Root,
		},
	}

	// 1. Validate - no mutation before this passes
	guard := scaffold.CanScaffold(s.requestContext(ctx, req, opts, l.Root))
	if err := guard.Error(); err != nil {
		r.report.State = primary.StateAborted
		s.log.Error("%s", guard.Reason)
		return r.report, serrors.Wrap(serrors.EInputValidation, "invalid scaffold request", err)
	}

	r.id = s.startRun(ctx, req, opts, l.Root)
	r.report.RunID = r.id
	s.log.Step("Scaffolding %s into %s", req.ProjectName, l.Root)

	// 2. Skeleton
	r.report.State = primary.StateBuildingSkeleton
	s.buildSkeleton(ctx, r, l)

	// 3. Toolchain
	if r.stop == nil {
		r.report.State = primary.StateRunningToolchain
		s.runToolchain(ctx, r, l)
	}

	// 4. Templates
	if r.stop == nil {
		r.report.State = primary.StateWritingTemplates
		s.writeTemplates(ctx, r, l, req)
	}

	// 5. Repository
	if r.stop == nil && !opts.SkipGit {
		r.report.State = primary.StateCommittingRepo
		s.commitRepo(ctx, r, l)
	}

	return s.finish(ctx, r)
}

// requestContext gathers the facts the guard evaluates.
func (s *ScaffoldServiceImpl) requestContext(ctx context.Context, req primary.ScaffoldRequest, opts primary.ScaffoldOptions, target string) scaffold.RequestContext {
	rc := scaffold.RequestContext{
		ProjectName: req.ProjectName,
		DBUser:      req.DBUser,
		DBPassword:  req.DBPassword,
		RootPath:    req.RootPath,
		TargetPath:  target,
		Force:       opts.Force,
	}

	if req.RootPath != "" {
		if info, err := os.Stat(req.RootPath); err == nil {
			rc.RootExists = true
			rc.RootIsDir = info.IsDir()
		}
	}

	if req.ProjectName != "" && rc.RootIsDir {
		entries, err := os.ReadDir(target)
		switch {
		case err == nil:
			rc.TargetEntries = len(entries)
		case !errors.Is(err, fs.ErrNotExist):
			// exists but unreadable, or not a directory
			rc.TargetEntries = 1
		}
	}

	if s.journal != nil && req.ProjectName != "" {
		active, err := s.journal.FindActiveRun(ctx, target)
		if err != nil {
			s.log.Warn("Could not check the run journal: %v", err)
		} else if active != nil {
			rc.ActiveRunID = active.ID
		}
	}

	return rc
}

func (s *ScaffoldServiceImpl) buildSkeleton(ctx context.Context, r *run, l layout.Layout) {
	s.log.Step("Creating directory skeleton")
	start := s.now()
	results := skeleton.EnsureSkeleton(l.SrcDir, l.SkeletonPaths())
	elapsed := s.now().Sub(start)

	created := 0
	for _, res := range results {
		rel, _ := filepath.Rel(l.Root, res.Path)
		ev := orchestrator.StepEvent{
			Phase:       scaffold.PhaseSkeleton,
			StepID:      "skeleton:" + filepath.ToSlash(rel),
			Description: "ensure " + filepath.ToSlash(rel),
			Status:      orchestrator.StatusOK,
			Duration:    elapsed / time.Duration(len(results)),
		}
		if res.Err != nil {
			ev.Status = orchestrator.StatusFailed
			ev.Err = res.Err
		} else if res.Created {
			created++
		}
		s.record(ctx, r, ev)
	}

	s.log.Info("%d of %d directories created", created, len(results))
	s.stopIfFailFast(r, scaffold.PhaseSkeleton, len(skeleton.Failed(results)) > 0)
}

func (s *ScaffoldServiceImpl) runToolchain(ctx context.Context, r *run, l layout.Layout) {
	plan, err := s.orchestrator.Plan(l, orchestrator.PlanOptions{
		SkipRestore: r.opts.SkipRestore,
		Modes:       r.opts.Modes,
	})
	if err != nil {
		s.record(ctx, r, orchestrator.StepEvent{
			Phase:       scaffold.PhaseSolution,
			StepID:      "plan",
			Description: "plan toolchain commands",
			Status:      orchestrator.StatusFailed,
			Err:         serrors.Wrap(serrors.EInternal, "failed to plan toolchain commands", err),
		})
		r.stop = &stopInfo{phase: scaffold.PhaseSolution}
		return
	}

	s.log.Step("Running %s (%d steps)", s.orchestrator.Toolchain().Name, plan.StepCount())
	report := s.orchestrator.Run(ctx, plan, &journalObserver{svc: s, ctx: ctx, run: r})
	if report.Stopped {
		r.stop = &stopInfo{phase: report.StoppedAt}
	}
}

func (s *ScaffoldServiceImpl) writeTemplates(ctx context.Context, r *run, l layout.Layout, req primary.ScaffoldRequest) {
	s.log.Step("Writing starter files")

	for _, field := range []struct{ name, value string }{
		{"project name", req.ProjectName},
		{"db user", req.DBUser},
		{"db password", req.DBPassword},
	} {
		if scaffoldtmpl.NeedsQuoting(field.value) {
			s.log.Warn("The %s contains connection-string delimiters; it is quoted in appsettings.json", field.name)
		}
	}

	files, err := scaffoldtmpl.Files()
	if err != nil {
		s.record(ctx, r, orchestrator.StepEvent{
			Phase:       scaffold.PhaseTemplates,
			StepID:      "templates",
			Description: "load starter templates",
			Status:      orchestrator.StatusFailed,
			Err:         serrors.Wrap(serrors.EInternal, "failed to load templates", err),
		})
		s.stopIfFailFast(r, scaffold.PhaseTemplates, true)
		return
	}

	bindings := scaffoldtmpl.Bindings(req.ProjectName, req.DBUser, req.DBPassword)
	results := materialize.Materialize(l.Root, files, bindings)

	failed := false
	for _, res := range results {
		rel, _ := filepath.Rel(l.Root, res.Path)
		ev := orchestrator.StepEvent{
			Phase:       scaffold.PhaseTemplates,
			StepID:      "template:" + res.Name,
			Description: fmt.Sprintf("%s %s", res.Outcome, filepath.ToSlash(rel)),
			Status:      orchestrator.StatusOK,
		}
		if res.Err != nil {
			ev.Status = orchestrator.StatusFailed
			ev.Err = res.Err
			failed = true
		} else if res.Outcome == materialize.Updated {
			s.log.Debug("%s: +%d -%d characters", filepath.ToSlash(rel), res.Inserted, res.Deleted)
		}
		s.record(ctx, r, ev)
	}
	s.stopIfFailFast(r, scaffold.PhaseTemplates, failed)
}

func (s *ScaffoldServiceImpl) commitRepo(ctx context.Context, r *run, l layout.Layout) {
	s.log.Step("Initializing git repository")
	start := s.now()
	res, err := s.repo.Init(ctx, l.Root)

	ev := orchestrator.StepEvent{
		Phase:       scaffold.PhaseGit,
		StepID:      "git:init",
		Description: "initialize repository and commit",
		Status:      orchestrator.StatusOK,
		Duration:    s.now().Sub(start),
	}
	if err != nil {
		ev.Status = orchestrator.StatusFailed
		ev.Err = err
	} else {
		ev.Description = fmt.Sprintf("committed %d files", res.Staged)
		if res.Commit != "" {
			ev.Description += " as " + shortHash(res.Commit)
		}
	}
	s.record(ctx, r, ev)
}

// stopIfFailFast ends the run after a failed stage whose phase is fail-fast.
func (s *ScaffoldServiceImpl) stopIfFailFast(r *run, phase scaffold.Phase, failed bool) {
	if failed && r.opts.Modes.For(phase) == scaffold.FailFast {
		r.stop = &stopInfo{phase: phase}
	}
}

// finish settles the final state, closes the journaled run and prints the
// output path whatever happened.
func (s *ScaffoldServiceImpl) finish(ctx context.Context, r *run) (*primary.ScaffoldReport, error) {
	failed := r.report.Failed()
	skipped := 0
	for _, ev := range r.report.Events {
		if ev.Status == orchestrator.StatusSkipped {
			skipped++
		}
	}

	state := secondary.RunStateDone
	r.report.State = primary.StateDone
	if len(failed) > 0 || r.stop != nil {
		state = secondary.RunStatePartiallyCompleted
		r.report.State = primary.StatePartiallyCompleted
	}

	if s.journal != nil && r.id != 0 {
		if err := s.journal.FinishRun(ctx, r.id, state, s.now()); err != nil {
			s.log.Warn("Could not close run %d in the journal: %v", r.id, err)
		}
	}

	if r.stop != nil {
		s.log.Error("Stopped after a failure in the %s phase", r.stop.phase)
	}
	if r.report.State == primary.StateDone {
		s.log.Success("Project generated at %s", r.report.OutputPath)
		return r.report, nil
	}

	s.log.Warn("Project generated at %s with %d failed and %d skipped steps", r.report.OutputPath, len(failed), skipped)
	return r.report, serrors.WrapWithDetails(serrors.EPartial,
		fmt.Sprintf("%d steps failed, %d skipped", len(failed), skipped), nil,
		map[string]string{"output_path": r.report.OutputPath})
}

// startRun journals the run; journal failures never stop a scaffold.
func (s *ScaffoldServiceImpl) startRun(ctx context.Context, req primary.ScaffoldRequest, opts primary.ScaffoldOptions, target string) int64 {
	if s.journal == nil {
		return 0
	}
	modes := ""
	if len(opts.Modes) > 0 {
		modes = opts.Modes.String()
	}
	id, err := s.journal.CreateRun(ctx, &secondary.RunRecord{
		ProjectName: req.ProjectName,
		TargetPath:  target,
		Modes:       modes,
		SkipRestore: opts.SkipRestore,
		SkipGit:     opts.SkipGit,
		StartedAt:   s.now(),
	})
	if err != nil {
		s.log.Warn("Could not record run in the journal: %v", err)
		return 0
	}
	return id
}

// record appends ev to the report, logs it and journals it.
func (s *ScaffoldServiceImpl) record(ctx context.Context, r *run, ev orchestrator.StepEvent) {
	r.report.Events = append(r.report.Events, ev)

	switch ev.Status {
	case orchestrator.StatusOK:
		s.log.Debug("%s", ev.Description)
	case orchestrator.StatusFailed:
		s.log.Error("%s: %v", ev.Description, ev.Err)
	case orchestrator.StatusSkipped:
		s.log.Warn("Skipped %s: %v", ev.Description, ev.Err)
	}

	if s.journal == nil || r.id == 0 {
		return
	}
	step := &secondary.StepRecord{
		RunID:    r.id,
		Phase:    string(ev.Phase),
		StepID:   ev.StepID,
		Status:   string(ev.Status),
		Duration: ev.Duration,
	}
	if ev.Err != nil {
		step.Message = ev.Err.Error()
		step.ErrorKind = string(serrors.KindOf(ev.Err))
	}
	if err := s.journal.RecordStep(ctx, step); err != nil {
		s.log.Warn("Could not journal step %s: %v", ev.StepID, err)
	}
}

// journalObserver forwards orchestrator progress into the run.
type journalObserver struct {
	svc *ScaffoldServiceImpl
	ctx context.Context
	run *run
}

func (o *journalObserver) StepStarted(step scaffold.Step) {
	o.svc.log.Info("%s", step.Description)
}

func (o *journalObserver) StepFinished(ev orchestrator.StepEvent) {
	o.svc.record(o.ctx, o.run, ev)
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}

// History lists past runs, newest first.
func (s *ScaffoldServiceImpl) History(ctx context.Context, limit int) ([]*primary.RunSummary, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("run journal is not configured")
	}

	records, err := s.journal.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]*primary.RunSummary, 0, len(records))
	for _, rec := range records {
		steps, err := s.journal.ListSteps(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		summary := &primary.RunSummary{
			ID:          rec.ID,
			ProjectName: rec.ProjectName,
			TargetPath:  rec.TargetPath,
			State:       rec.State,
			Modes:       rec.Modes,
			StartedAt:   rec.StartedAt.Local().Format(time.DateTime),
		}
		if !rec.FinishedAt.IsZero() {
			summary.FinishedAt = rec.FinishedAt.Local().Format(time.DateTime)
		}
		for _, st := range steps {
			switch st.Status {
			case string(orchestrator.StatusFailed):
				summary.Failed++
			case string(orchestrator.StatusSkipped):
				summary.Skipped++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RunSteps lists the step events of one run.
func (s *ScaffoldServiceImpl) RunSteps(ctx context.Context, runID int64) ([]*primary.StepSummary, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("run journal is not configured")
	}

	records, err := s.journal.ListSteps(ctx, runID)
	if err != nil {
		return nil, err
	}

	out := make([]*primary.StepSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, &primary.StepSummary{
			Phase:     rec.Phase,
			StepID:    rec.StepID,
			Status:    rec.Status,
			Message:   rec.Message,
			ErrorKind: rec.ErrorKind,
			Duration:  rec.Duration.Round(time.Millisecond).String(),
		})
	}
	return out, nil
}
