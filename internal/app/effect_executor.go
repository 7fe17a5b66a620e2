// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/example/dotscaffold/internal/core/effects"
	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/exec"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor with real I/O.
type DefaultEffectExecutor struct {
	runner exec.CommandRunner
	sink   exec.OutputSink
}

// NewEffectExecutor creates a new DefaultEffectExecutor. Tool output is
// forwarded to sink line by line.
func NewEffectExecutor(runner exec.CommandRunner, sink exec.OutputSink) *DefaultEffectExecutor {
	return &DefaultEffectExecutor{runner: runner, sink: sink}
}

// Execute processes a slice of effects in sequence, stopping at the first
// failure.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			var se *serrors.ScaffoldError
			if errors.As(err, &se) {
				return err
			}
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.CommandEffect:
		return e.executeCommand(ctx, typed)
	case effects.FileEffect:
		return e.executeFile(typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executeCommand(ctx context.Context, eff effects.CommandEffect) error {
	details := map[string]string{
		"operation": eff.Operation,
		"command":   eff.String(),
	}

	code, err := e.runner.Run(ctx, eff.Tool, eff.Args, exec.RunOpts{Dir: eff.Dir, Sink: e.sink})
	if err != nil {
		return serrors.WrapWithDetails(serrors.EToolInvocation,
			fmt.Sprintf("%s could not be launched", eff.Tool), err, details)
	}
	if code != 0 {
		details["exit_code"] = fmt.Sprint(code)
		return serrors.WrapWithDetails(serrors.EToolInvocation,
			fmt.Sprintf("%s exited with code %d", eff.Operation, code), nil, details)
	}
	return nil
}

func (e *DefaultEffectExecutor) executeFile(eff effects.FileEffect) error {
	var err error
	switch eff.Operation {
	case "mkdir":
		err = os.MkdirAll(eff.Path, fileMode(eff.Mode, 0755))
	case "write":
		err = os.WriteFile(eff.Path, eff.Content, fileMode(eff.Mode, 0644))
	case "remove_if_exists":
		err = os.Remove(eff.Path)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
	default:
		return fmt.Errorf("unknown file operation: %s", eff.Operation)
	}
	if err != nil {
		return serrors.Wrap(serrors.EFilesystem, fmt.Sprintf("%s %s failed", eff.Operation, eff.Path), err)
	}
	return nil
}

func fileMode(mode uint32, fallback os.FileMode) os.FileMode {
	if mode == 0 {
		return fallback
	}
	return os.FileMode(mode)
}
