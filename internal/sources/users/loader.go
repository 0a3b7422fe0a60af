package users

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Loader handles loading and parsing of users.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new users file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the users file. {{VAR}} placeholders are replaced by
// the value of the environment variable VAR so tokens can live outside the
// file.
func (l *Loader) Load() (UsersConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return UsersConfig{}, fmt.Errorf("failed to read users file: %w", err)
	}

	data = expandTemplateVariables(data, os.Getenv)

	var config UsersConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return UsersConfig{}, fmt.Errorf("failed to parse users yaml: %w", err)
	}

	return config, nil
}

// expandTemplateVariables substitutes {{NAME}} with lookup(NAME), quoted so
// the YAML stays valid whatever the value contains.
// Example: {{KEEPMARK_TOKEN_ALICE}} -> "s3cr3t"
func expandTemplateVariables(data []byte, lookup func(string) string) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		val := lookup(string(name))
		val = strings.ReplaceAll(val, `\`, `\\`)
		val = strings.ReplaceAll(val, `"`, `\"`)
		return []byte(`"` + val + `"`)
	})
}
