package scaffold

import "fmt"

// FileTemplate is one file emitted into a generated solution.
type FileTemplate struct {
	Name        string // template name, also used in reports
	Destination string // path relative to the project root, may contain placeholders
	Body        string // body with placeholders

	// Encode, when set, produces the file content instead of Render(Body).
	// Used for structured files that need a real serializer.
	Encode func(bindings map[string]string) ([]byte, error)
}

// Content renders the template's file content for bindings.
func (ft FileTemplate) Content(bindings map[string]string) ([]byte, error) {
	if ft.Encode != nil {
		return ft.Encode(bindings)
	}
	return []byte(Render(ft.Body, bindings)), nil
}

// Path renders the template's destination for bindings.
func (ft FileTemplate) Path(bindings map[string]string) string {
	return Render(ft.Destination, bindings)
}

// starterFiles lists the embedded bodies and where they land, in write order.
var starterFiles = []struct {
	template    string
	destination string
}{
	{"entity.cs", "src/{{projectName}}.Dominio/Entidades/Usuario.cs"},
	{"dbcontext.cs", "src/{{projectName}}.Infra/DataAccess/AppDbContext.cs"},
	{"repository_interface.cs", "src/{{projectName}}.Infra/Repositories/IUsuarioRepository.cs"},
	{"repository.cs", "src/{{projectName}}.Infra/Repositories/UsuarioRepository.cs"},
	{"usecase.cs", "src/{{projectName}}.Aplicacao/UseCase/AdicionarUsuarioUseCase.cs"},
	{"controller.cs", "src/{{projectName}}.API/Controllers/UsuarioController.cs"},
	{"request.cs", "src/{{projectName}}.Comunicacao/Requests/UsuarioRequest.cs"},
	{"response.cs", "src/{{projectName}}.Comunicacao/Responses/UsuarioResponse.cs"},
	{"program.cs", "src/{{projectName}}.API/Program.cs"},
	{"jwt_service.cs", "src/{{projectName}}.Infra/Seguranca/JwtService.cs"},
	{"gitignore", ".gitignore"},
}

// AppSettingsDestination is where the configuration artifact is written.
const AppSettingsDestination = "src/{{projectName}}.API/appsettings.json"

// Files returns the fixed set of starter files in write order.
func Files() ([]FileTemplate, error) {
	files := make([]FileTemplate, 0, len(starterFiles)+1)
	for _, f := range starterFiles {
		body, err := GetTemplate(f.template)
		if err != nil {
			return nil, fmt.Errorf("failed to load template %s: %w", f.template, err)
		}
		files = append(files, FileTemplate{
			Name:        f.template,
			Destination: f.destination,
			Body:        body,
		})
	}

	files = append(files, FileTemplate{
		Name:        "appsettings.json",
		Destination: AppSettingsDestination,
		Encode:      EncodeAppSettings,
	})
	return files, nil
}
