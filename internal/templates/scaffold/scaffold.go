// Package scaffold provides the file templates emitted into a generated
// solution and the renderer that fills them in.
package scaffold

import (
	"embed"
	"strings"
)

//go:embed dotnet/*.tmpl
var dotnetTemplates embed.FS

// Binding keys understood by the templates.
const (
	KeyProjectName = "projectName"
	KeyDBUser      = "dbUser"
	KeyDBPassword  = "dbPassword"
)

// Bindings builds the placeholder map for a project.
func Bindings(projectName, dbUser, dbPassword string) map[string]string {
	return map[string]string{
		KeyProjectName: projectName,
		KeyDBUser:      dbUser,
		KeyDBPassword:  dbPassword,
	}
}

// GetTemplate returns the body of an embedded template, e.g. "entity.cs".
func GetTemplate(name string) (string, error) {
	content, err := dotnetTemplates.ReadFile("dotnet/" + name + ".tmpl")
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Render replaces every {{name}} in tmpl whose name is a key of bindings.
// Placeholders with no binding are left as they are. Replacement text is
// never rescanned, so a value containing "{{...}}" is inserted verbatim.
func Render(tmpl string, bindings map[string]string) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		name := rest[start+2 : start+2+end]
		value, ok := bindings[name]
		if !ok {
			// Not a placeholder here; a later "{{" may still start one.
			b.WriteString(rest[:start+1])
			rest = rest[start+1:]
			continue
		}
		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[start+2+end+2:]
	}
	return b.String()
}

// RenderAll renders each element of args. Used for argv templates so that
// substituted values never split into extra arguments.
func RenderAll(args []string, bindings map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = Render(a, bindings)
	}
	return out
}
