package scaffold

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		bindings map[string]string
		expected string
	}{
		{
			name:     "single placeholder",
			tmpl:     "Server={{projectName}}",
			bindings: map[string]string{"projectName": "Foo"},
			expected: "Server=Foo",
		},
		{
			name:     "unknown placeholder passes through",
			tmpl:     "a={{missing}} b={{projectName}}",
			bindings: map[string]string{"projectName": "Foo"},
			expected: "a={{missing}} b=Foo",
		},
		{
			name:     "repeated placeholder",
			tmpl:     "{{projectName}}.API and {{projectName}}.Infra",
			bindings: map[string]string{"projectName": "Shop"},
			expected: "Shop.API and Shop.Infra",
		},
		{
			name:     "no placeholders",
			tmpl:     "public class X { }",
			bindings: map[string]string{"projectName": "Shop"},
			expected: "public class X { }",
		},
		{
			name:     "placeholder wrapped in literal braces",
			tmpl:     `$"{{{projectName}}}"`,
			bindings: map[string]string{"projectName": "Foo"},
			expected: `$"{Foo}"`,
		},
		{
			name:     "stray opening braces before placeholder",
			tmpl:     "{{ x {{projectName}}",
			bindings: map[string]string{"projectName": "Foo"},
			expected: "{{ x Foo",
		},
		{
			name:     "unterminated placeholder",
			tmpl:     "value={{projectName",
			bindings: map[string]string{"projectName": "Shop"},
			expected: "value={{projectName",
		},
		{
			name:     "value containing placeholder syntax is not rescanned",
			tmpl:     "{{dbPassword}}",
			bindings: map[string]string{"dbPassword": "{{projectName}}", "projectName": "Shop"},
			expected: "{{projectName}}",
		},
		{
			name:     "nil bindings",
			tmpl:     "{{projectName}}",
			bindings: nil,
			expected: "{{projectName}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Render(tt.tmpl, tt.bindings)
			if result != tt.expected {
				t.Errorf("Render(%q) = %q, want %q", tt.tmpl, result, tt.expected)
			}
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	bindings := Bindings("Shop", "root", "pw123")
	tmpl := "{{projectName}}/{{dbUser}}/{{dbPassword}}/{{projectName}}"

	first := Render(tmpl, bindings)
	for i := 0; i < 20; i++ {
		if got := Render(tmpl, bindings); got != first {
			t.Fatalf("render %d differs: %q vs %q", i, got, first)
		}
	}
}

func TestRenderAll_KeepsArgumentBoundaries(t *testing.T) {
	args := []string{"new", "sln", "-n", "{{projectName}}"}
	got := RenderAll(args, map[string]string{"projectName": "My Shop"})

	if len(got) != 4 || got[3] != "My Shop" {
		t.Errorf("RenderAll() = %q", got)
	}
	if args[3] != "{{projectName}}" {
		t.Error("RenderAll mutated its input")
	}
}

func TestFiles(t *testing.T) {
	files, err := Files()
	if err != nil {
		t.Fatalf("Files() failed: %v", err)
	}

	bindings := Bindings("Shop", "root", "pw123")
	seen := make(map[string]bool)
	for _, f := range files {
		path := f.Path(bindings)
		if strings.Contains(path, "{{") {
			t.Errorf("%s: unrendered destination %q", f.Name, path)
		}
		if seen[path] {
			t.Errorf("duplicate destination %q", path)
		}
		seen[path] = true

		content, err := f.Content(bindings)
		if err != nil {
			t.Fatalf("%s: Content failed: %v", f.Name, err)
		}
		if strings.Contains(string(content), "{{projectName}}") {
			t.Errorf("%s: content still contains a projectName placeholder", f.Name)
		}
	}

	for _, want := range []string{
		"src/Shop.Dominio/Entidades/Usuario.cs",
		"src/Shop.Infra/DataAccess/AppDbContext.cs",
		"src/Shop.Infra/Repositories/UsuarioRepository.cs",
		"src/Shop.Aplicacao/UseCase/AdicionarUsuarioUseCase.cs",
		"src/Shop.API/Controllers/UsuarioController.cs",
		"src/Shop.Comunicacao/Requests/UsuarioRequest.cs",
		"src/Shop.Comunicacao/Responses/UsuarioResponse.cs",
		"src/Shop.Infra/Seguranca/JwtService.cs",
		"src/Shop.API/Program.cs",
		"src/Shop.API/appsettings.json",
	} {
		if !seen[want] {
			t.Errorf("missing starter file %s", want)
		}
	}
}

func TestEncodeAppSettings_ConnectionDescriptor(t *testing.T) {
	data, err := EncodeAppSettings(Bindings("Shop", "root", "pw123"))
	if err != nil {
		t.Fatalf("EncodeAppSettings failed: %v", err)
	}

	if !strings.Contains(string(data), "Database=Shop;User=root;Password=pw123") {
		t.Errorf("connection descriptor not found in:\n%s", data)
	}

	var decoded AppSettings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("generated file is not valid JSON: %v", err)
	}
	if decoded.Jwt.SecretKey != DefaultJwtSecret || decoded.Jwt.ExpiryMinutes != "60" {
		t.Errorf("unexpected Jwt section: %+v", decoded.Jwt)
	}
	if decoded.AllowedHosts != "*" {
		t.Errorf("AllowedHosts = %q", decoded.AllowedHosts)
	}

	// ConnectionStrings must come first, AllowedHosts last.
	s := string(data)
	if strings.Index(s, "ConnectionStrings") > strings.Index(s, "AllowedHosts") {
		t.Error("key order changed")
	}
}

func TestEncodeAppSettings_SpecialCharactersStayValid(t *testing.T) {
	password := `p"w\;1`
	data, err := EncodeAppSettings(Bindings("Shop", "root", password))
	if err != nil {
		t.Fatalf("EncodeAppSettings failed: %v", err)
	}

	var decoded AppSettings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("special characters corrupted JSON: %v\n%s", err, data)
	}
	want := `Server=localhost;Database=Shop;User=root;Password="p""w\;1"`
	if decoded.ConnectionStrings.DefaultConnection != want {
		t.Errorf("DefaultConnection = %q, want %q", decoded.ConnectionStrings.DefaultConnection, want)
	}
}

func TestQuoteConnValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pw123", "pw123"},
		{"", ""},
		{"a;b", `"a;b"`},
		{`say "hi"`, `"say ""hi"""`},
		{" padded", `" padded"`},
		{"it's", `"it's"`},
	}
	for _, tt := range tests {
		if got := QuoteConnValue(tt.in); got != tt.want {
			t.Errorf("QuoteConnValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
