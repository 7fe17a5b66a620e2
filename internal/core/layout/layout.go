// Package layout derives the fixed module layout of a generated solution.
// Everything here is pure: the same project name always yields the same
// modules, reference edges, packages and directories.
package layout

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies one of the six modules by its name suffix.
type Kind string

const (
	KindAPI         Kind = "API"
	KindApplication Kind = "Aplicacao"
	KindDomain      Kind = "Dominio"
	KindInfra       Kind = "Infra"
	KindComm        Kind = "Comunicacao"
	KindException   Kind = "Exception"
)

// Kinds lists every module kind in creation order.
var Kinds = []Kind{KindAPI, KindApplication, KindDomain, KindInfra, KindComm, KindException}

// Project templates understood by the build toolchain.
const (
	TemplateWebAPI   = "webapi"
	TemplateClassLib = "classlib"
)

// Module is one generated project.
type Module struct {
	Kind     Kind
	Name     string // e.g. "Shop.API"
	Template string // webapi or classlib
	Dir      string // absolute module root
	File     string // absolute path of the project file
}

// Edge is an allowed dependency direction: From may reference To.
type Edge struct {
	From Kind
	To   Kind
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s", e.From, e.To)
}

// Edges is the fixed reference DAG between modules.
var Edges = []Edge{
	{KindAPI, KindApplication},
	{KindAPI, KindComm},
	{KindAPI, KindException},
	{KindApplication, KindDomain},
	{KindApplication, KindInfra},
	{KindInfra, KindDomain},
	{KindDomain, KindComm},
}

// PackageRef is a pinned external package dependency of a module.
type PackageRef struct {
	Module  Kind
	Name    string
	Version string
}

// Packages is the fixed package table, in install order.
var Packages = []PackageRef{
	{KindAPI, "AutoMapper.Extensions.Microsoft.DependencyInjection", "12.0.0"},
	{KindAPI, "Microsoft.EntityFrameworkCore.Design", "8.0.0"},
	{KindAPI, "Microsoft.EntityFrameworkCore.Tools", "8.0.0"},
	{KindAPI, "Microsoft.AspNetCore.Authentication.JwtBearer", "8.0.0"},
	{KindAPI, "Pomelo.EntityFrameworkCore.MySql", "8.0.0"},
	{KindAPI, "FluentValidation", "11.7.1"},
	{KindAPI, "Microsoft.Extensions.DependencyInjection.Abstractions", "8.0.0"},
	{KindAPI, "Microsoft.Extensions.Options", "8.0.0"},
	{KindInfra, "Microsoft.EntityFrameworkCore.Design", "8.0.0"},
	{KindInfra, "Microsoft.EntityFrameworkCore.Tools", "8.0.0"},
	{KindInfra, "Pomelo.EntityFrameworkCore.MySql", "8.0.0"},
	{KindInfra, "Microsoft.AspNetCore.Authentication.JwtBearer", "8.0.0"},
}

// Directories is the internal folder convention of each module.
var Directories = map[Kind][]string{
	KindAPI:         {"Controllers"},
	KindApplication: {"AutoMapper", "Enums", "Reports", "UseCase"},
	KindDomain:      {"Entidades", "Enums", "Extensoes", "Reports", "Repositories", "Seguranca", "Services"},
	KindInfra:       {"DataAccess", "Extensoes", "Migrations", "Seguranca", "Services", "Repositories"},
	KindComm:        {"Enums", "Requests", "Responses"},
	KindException:   {"ExceptionBase"},
}

// DefaultClassFile is the placeholder file a classlib template drops in.
const DefaultClassFile = "Class1.cs"

// SrcDirName is the folder holding every module under the project root.
const SrcDirName = "src"

// ModuleName returns "{projectName}.{kind}".
func ModuleName(projectName string, kind Kind) string {
	return projectName + "." + string(kind)
}

// Layout is the resolved on-disk shape of one solution.
type Layout struct {
	ProjectName  string
	Root         string // {rootPath}/{projectName}
	SrcDir       string // {Root}/src
	SolutionFile string // {Root}/{projectName}.sln
	Modules      []Module
}

// New derives the layout for projectName under rootPath.
func New(rootPath, projectName string) Layout {
	root := filepath.Join(rootPath, projectName)
	src := filepath.Join(root, SrcDirName)

	l := Layout{
		ProjectName:  projectName,
		Root:         root,
		SrcDir:       src,
		SolutionFile: filepath.Join(root, projectName+".sln"),
		Modules:      make([]Module, 0, len(Kinds)),
	}
	for _, k := range Kinds {
		name := ModuleName(projectName, k)
		tmpl := TemplateClassLib
		if k == KindAPI {
			tmpl = TemplateWebAPI
		}
		dir := filepath.Join(src, name)
		l.Modules = append(l.Modules, Module{
			Kind:     k,
			Name:     name,
			Template: tmpl,
			Dir:      dir,
			File:     filepath.Join(dir, name+".csproj"),
		})
	}
	return l
}

// Module returns the module of the given kind.
func (l Layout) Module(kind Kind) (Module, bool) {
	for _, m := range l.Modules {
		if m.Kind == kind {
			return m, true
		}
	}
	return Module{}, false
}

// SkeletonPaths returns the skeleton directories relative to SrcDir,
// module by module in creation order.
func (l Layout) SkeletonPaths() []string {
	var paths []string
	for _, m := range l.Modules {
		paths = append(paths, m.Name)
		for _, d := range Directories[m.Kind] {
			paths = append(paths, filepath.Join(m.Name, d))
		}
	}
	return paths
}

// ValidateAcyclic returns an error naming a cycle if edges contain one.
func ValidateAcyclic(edges []Edge) error {
	adj := make(map[Kind][]Kind)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Kind]int)
	var stack []Kind

	var visit func(k Kind) error
	visit = func(k Kind) error {
		state[k] = visiting
		stack = append(stack, k)
		for _, next := range adj[k] {
			switch state[next] {
			case visiting:
				var cycle []string
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append([]string{string(stack[i])}, cycle...)
					if stack[i] == next {
						break
					}
				}
				cycle = append(cycle, string(next))
				return fmt.Errorf("reference cycle: %s", strings.Join(cycle, " -> "))
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[k] = done
		return nil
	}

	for _, e := range edges {
		if state[e.From] == unvisited {
			if err := visit(e.From); err != nil {
				return err
			}
		}
	}
	return nil
}
