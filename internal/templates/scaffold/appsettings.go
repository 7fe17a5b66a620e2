package scaffold

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Static placeholder values written into appsettings.json.
const (
	DefaultDBServer     = "localhost"
	DefaultJwtSecret    = "YourSecretKey"
	DefaultJwtExpiryMin = "60"
)

// AppSettings mirrors the layout of the generated appsettings.json.
// Field order is the key order in the file.
type AppSettings struct {
	ConnectionStrings ConnectionStrings `json:"ConnectionStrings"`
	Jwt               JwtSettings       `json:"Jwt"`
	Logging           LoggingSettings   `json:"Logging"`
	AllowedHosts      string            `json:"AllowedHosts"`
}

type ConnectionStrings struct {
	DefaultConnection string `json:"DefaultConnection"`
}

type JwtSettings struct {
	SecretKey     string `json:"SecretKey"`
	ExpiryMinutes string `json:"ExpiryMinutes"`
}

type LoggingSettings struct {
	LogLevel LogLevels `json:"LogLevel"`
}

type LogLevels struct {
	Default             string `json:"Default"`
	MicrosoftAspNetCore string `json:"Microsoft.AspNetCore"`
}

// NewAppSettings builds the settings document for a project.
func NewAppSettings(projectName, dbUser, dbPassword string) AppSettings {
	return AppSettings{
		ConnectionStrings: ConnectionStrings{
			DefaultConnection: ConnectionString(DefaultDBServer, projectName, dbUser, dbPassword),
		},
		Jwt: JwtSettings{
			SecretKey:     DefaultJwtSecret,
			ExpiryMinutes: DefaultJwtExpiryMin,
		},
		Logging: LoggingSettings{
			LogLevel: LogLevels{
				Default:             "Information",
				MicrosoftAspNetCore: "Warning",
			},
		},
		AllowedHosts: "*",
	}
}

// EncodeAppSettings renders appsettings.json from bindings.
// JSON escaping is left to encoding/json so that quotes or backslashes in
// the credentials cannot break the document.
func EncodeAppSettings(bindings map[string]string) ([]byte, error) {
	settings := NewAppSettings(bindings[KeyProjectName], bindings[KeyDBUser], bindings[KeyDBPassword])

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(settings); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ConnectionString builds a MySQL connection descriptor of the form
// Server=...;Database=...;User=...;Password=...
func ConnectionString(server, database, user, password string) string {
	parts := []string{
		"Server=" + QuoteConnValue(server),
		"Database=" + QuoteConnValue(database),
		"User=" + QuoteConnValue(user),
		"Password=" + QuoteConnValue(password),
	}
	return strings.Join(parts, ";")
}

// NeedsQuoting reports whether v would change the structure of a
// connection string if inserted bare.
func NeedsQuoting(v string) bool {
	if v == "" {
		return false
	}
	if strings.ContainsAny(v, `;'"`) {
		return true
	}
	return strings.TrimSpace(v) != v
}

// QuoteConnValue returns v unchanged when it is safe to insert bare, and
// otherwise wraps it in double quotes with embedded quotes doubled.
func QuoteConnValue(v string) string {
	if !NeedsQuoting(v) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
