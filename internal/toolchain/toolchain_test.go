package toolchain

import (
	"reflect"
	"strings"
	"testing"
)

func TestDotnet_CoversEveryOperation(t *testing.T) {
	tc := Dotnet("")
	if tc.Tool != "dotnet" {
		t.Errorf("Tool = %q, want dotnet", tc.Tool)
	}
	for _, op := range Operations {
		if _, ok := tc.Templates[op]; !ok {
			t.Errorf("missing template for %s", op)
		}
	}
}

func TestDotnet_ToolOverride(t *testing.T) {
	if tc := Dotnet("/opt/dotnet/dotnet"); tc.Tool != "/opt/dotnet/dotnet" {
		t.Errorf("Tool = %q", tc.Tool)
	}
}

func TestCommands(t *testing.T) {
	tc := Dotnet("")

	tests := []struct {
		name     string
		build    func() (string, []string, string, error)
		wantOp   string
		wantArgs []string
		wantDir  string
	}{
		{
			name: "create solution",
			build: func() (string, []string, string, error) {
				c, err := tc.CreateSolution("Shop", "/w/Shop")
				return c.Operation, c.Args, c.Dir, err
			},
			wantOp:   "create-solution",
			wantArgs: []string{"new", "sln", "-n", "Shop"},
			wantDir:  "/w/Shop",
		},
		{
			name: "create webapi module with restore skipped",
			build: func() (string, []string, string, error) {
				c, err := tc.CreateModule("webapi", "Shop.API", "/w/Shop/src/Shop.API", true)
				return c.Operation, c.Args, c.Dir, err
			},
			wantOp:   "create-module",
			wantArgs: []string{"new", "webapi", "-n", "Shop.API", "-o", "/w/Shop/src/Shop.API", "--use-controllers", "--no-restore"},
		},
		{
			name: "create classlib module with restore",
			build: func() (string, []string, string, error) {
				c, err := tc.CreateModule("classlib", "Shop.Infra", "/w/Shop/src/Shop.Infra", false)
				return c.Operation, c.Args, c.Dir, err
			},
			wantOp:   "create-module",
			wantArgs: []string{"new", "classlib", "-n", "Shop.Infra", "-o", "/w/Shop/src/Shop.Infra"},
		},
		{
			name: "add module to solution",
			build: func() (string, []string, string, error) {
				c, err := tc.AddModuleToSolution("/w/Shop/Shop.sln", "/w/Shop/src/Shop.API/Shop.API.csproj")
				return c.Operation, c.Args, c.Dir, err
			},
			wantOp:   "add-module-to-solution",
			wantArgs: []string{"sln", "/w/Shop/Shop.sln", "add", "/w/Shop/src/Shop.API/Shop.API.csproj"},
		},
		{
			name: "add reference",
			build: func() (string, []string, string, error) {
				c, err := tc.AddReference("a.csproj", "b.csproj")
				return c.Operation, c.Args, c.Dir, err
			},
			wantOp:   "add-reference",
			wantArgs: []string{"add", "a.csproj", "reference", "b.csproj"},
		},
		{
			name: "add package pinned",
			build: func() (string, []string, string, error) {
				c, err := tc.AddPackage("a.csproj", "FluentValidation", "11.7.1")
				return c.Operation, c.Args, c.Dir, err
			},
			wantOp:   "add-package",
			wantArgs: []string{"add", "a.csproj", "package", "FluentValidation", "--version", "11.7.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, args, dir, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if op != tt.wantOp {
				t.Errorf("Operation = %s, want %s", op, tt.wantOp)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("Args = %q, want %q", args, tt.wantArgs)
			}
			if dir != tt.wantDir {
				t.Errorf("Dir = %q, want %q", dir, tt.wantDir)
			}
		})
	}
}

func TestCommand_UnboundParameter(t *testing.T) {
	tc := Dotnet("")
	_, err := tc.Command(OpAddPackage, map[string]string{ParamModuleFile: "a.csproj"})
	if err == nil {
		t.Fatal("expected error for missing parameters")
	}
	if !strings.Contains(err.Error(), "package, version") {
		t.Errorf("error = %v", err)
	}
}

func TestCommand_UnknownOperation(t *testing.T) {
	tc := Dotnet("")
	if _, err := tc.Command(Operation("publish"), nil); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestCommand_ValueWithBracesIsNotTreatedAsPlaceholder(t *testing.T) {
	tc := Dotnet("")
	c, err := tc.AddReference("/w/{{odd}}/a.csproj", "b.csproj")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Args[1] != "/w/{{odd}}/a.csproj" {
		t.Errorf("Args[1] = %q", c.Args[1])
	}
}

func TestSwappedTable(t *testing.T) {
	tc := &Toolchain{
		Name: "echo",
		Tool: "echo",
		Templates: map[Operation][]string{
			OpCreateSolution: {"solution:{{solution}}"},
		},
	}
	c, err := tc.CreateSolution("Shop", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Tool != "echo" || c.Args[0] != "solution:Shop" {
		t.Errorf("got %s", c.String())
	}
}

func TestUnbound_PlaceholderNextToBraces(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   []string
		params map[string]string
		want   []string
	}{
		{"wrapped and bound", []string{"{{{module}}}"}, map[string]string{ParamModule: "A"}, nil},
		{"wrapped and unbound", []string{"{{{module}}}"}, nil, []string{"module"}},
		{"stray braces before placeholder", []string{"{{ x {{version}}"}, nil, []string{"version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unbound(tt.tmpl, tt.params)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("unbound = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand_RendersPlaceholderWrappedInBraces(t *testing.T) {
	tc := &Toolchain{
		Name:      "echo",
		Tool:      "echo",
		Templates: map[Operation][]string{OpCreateSolution: {"{{{solution}}}"}},
	}
	c, err := tc.CreateSolution("Shop", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Args[0] != "{Shop}" {
		t.Errorf("Args[0] = %q, want {Shop}", c.Args[0])
	}
}
