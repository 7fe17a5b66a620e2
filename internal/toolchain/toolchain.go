// Package toolchain binds the module orchestration operations to an external
// build tool. Each operation is an argv template; swapping the table swaps
// the tool.
package toolchain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/dotscaffold/internal/core/effects"
	scaffoldtmpl "github.com/example/dotscaffold/internal/templates/scaffold"
)

// Operation is one of the enumerable commands the orchestrator issues.
type Operation string

const (
	OpCreateSolution Operation = "create-solution"
	OpCreateModule   Operation = "create-module"
	OpAddToSolution  Operation = "add-module-to-solution"
	OpAddReference   Operation = "add-reference"
	OpAddPackage     Operation = "add-package"
)

// Operations lists every operation in pipeline order.
var Operations = []Operation{OpCreateSolution, OpCreateModule, OpAddToSolution, OpAddReference, OpAddPackage}

// Template parameter names.
const (
	ParamSolution       = "solution"
	ParamTemplate       = "template"
	ParamModule         = "module"
	ParamModuleDir      = "moduleDir"
	ParamSolutionFile   = "solutionFile"
	ParamModuleFile     = "moduleFile"
	ParamFromModuleFile = "fromModuleFile"
	ParamToModuleFile   = "toModuleFile"
	ParamPackage        = "package"
	ParamVersion        = "version"
)

// Toolchain is a table of argv templates for one build tool.
type Toolchain struct {
	Name      string
	Tool      string
	Templates map[Operation][]string

	// TemplateFlags are appended to create-module per project template.
	TemplateFlags map[string][]string
	// NoRestoreFlag is appended to create-module when restore is skipped.
	NoRestoreFlag string
}

// Dotnet returns the dotnet CLI binding. tool overrides the executable
// name when non-empty.
func Dotnet(tool string) *Toolchain {
	if tool == "" {
		tool = "dotnet"
	}
	return &Toolchain{
		Name: "dotnet",
		Tool: tool,
		Templates: map[Operation][]string{
			OpCreateSolution: {"new", "sln", "-n", "{{solution}}"},
			OpCreateModule:   {"new", "{{template}}", "-n", "{{module}}", "-o", "{{moduleDir}}"},
			OpAddToSolution:  {"sln", "{{solutionFile}}", "add", "{{moduleFile}}"},
			OpAddReference:   {"add", "{{fromModuleFile}}", "reference", "{{toModuleFile}}"},
			OpAddPackage:     {"add", "{{moduleFile}}", "package", "{{package}}", "--version", "{{version}}"},
		},
		TemplateFlags: map[string][]string{
			"webapi": {"--use-controllers"},
		},
		NoRestoreFlag: "--no-restore",
	}
}

// Command renders the argv template for op with params.
// Every placeholder in the template must be bound.
func (t *Toolchain) Command(op Operation, params map[string]string) (effects.CommandEffect, error) {
	tmpl, ok := t.Templates[op]
	if !ok {
		return effects.CommandEffect{}, fmt.Errorf("toolchain %s has no template for %s", t.Name, op)
	}

	if missing := unbound(tmpl, params); len(missing) > 0 {
		return effects.CommandEffect{}, fmt.Errorf("%s: unbound parameters %s", op, strings.Join(missing, ", "))
	}
	args := scaffoldtmpl.RenderAll(tmpl, params)

	return effects.CommandEffect{
		Operation: string(op),
		Tool:      t.Tool,
		Args:      args,
	}, nil
}

// CreateSolution builds the create-solution command, run inside dir.
func (t *Toolchain) CreateSolution(name, dir string) (effects.CommandEffect, error) {
	cmd, err := t.Command(OpCreateSolution, map[string]string{ParamSolution: name})
	cmd.Dir = dir
	return cmd, err
}

// CreateModule builds the create-module command for a project template.
func (t *Toolchain) CreateModule(template, name, dir string, skipRestore bool) (effects.CommandEffect, error) {
	cmd, err := t.Command(OpCreateModule, map[string]string{
		ParamTemplate:  template,
		ParamModule:    name,
		ParamModuleDir: dir,
	})
	if err != nil {
		return cmd, err
	}
	cmd.Args = append(cmd.Args, t.TemplateFlags[template]...)
	if skipRestore && t.NoRestoreFlag != "" {
		cmd.Args = append(cmd.Args, t.NoRestoreFlag)
	}
	return cmd, nil
}

// AddModuleToSolution builds the add-module-to-solution command.
func (t *Toolchain) AddModuleToSolution(solutionFile, moduleFile string) (effects.CommandEffect, error) {
	return t.Command(OpAddToSolution, map[string]string{
		ParamSolutionFile: solutionFile,
		ParamModuleFile:   moduleFile,
	})
}

// AddReference builds the add-reference command.
func (t *Toolchain) AddReference(fromModuleFile, toModuleFile string) (effects.CommandEffect, error) {
	return t.Command(OpAddReference, map[string]string{
		ParamFromModuleFile: fromModuleFile,
		ParamToModuleFile:   toModuleFile,
	})
}

// AddPackage builds the add-package command with an exact version pin.
func (t *Toolchain) AddPackage(moduleFile, pkg, version string) (effects.CommandEffect, error) {
	return t.Command(OpAddPackage, map[string]string{
		ParamModuleFile: moduleFile,
		ParamPackage:    pkg,
		ParamVersion:    version,
	})
}

// unbound returns the sorted placeholder names in tmpl that params lacks.
func unbound(tmpl []string, params map[string]string) []string {
	seen := make(map[string]bool)
	for _, a := range tmpl {
		rest := a
		for {
			start := strings.Index(rest, "{{")
			if start < 0 {
				break
			}
			end := strings.Index(rest[start:], "}}")
			if end < 0 {
				break
			}
			name := rest[start+2 : start+end]
			_, bound := params[name]
			if !bound && !isName(name) {
				rest = rest[start+1:]
				continue
			}
			if !bound {
				seen[name] = true
			}
			rest = rest[start+end+2:]
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// isName reports whether s can be a placeholder name.
func isName(s string) bool {
	return s != "" && !strings.ContainsAny(s, "{} \t")
}
