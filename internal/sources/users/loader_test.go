package users

import (
	"os"
	"path/filepath"
	"testing"
)

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeUsersFile(t, `users:
  - id: alice
    name: Alice
    tokens: ["token-a", "token-a2"]
  - id: bob
    tokens: ["token-b"]
`)

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(config.Users) != 2 {
		t.Fatalf("Load() returned %d users, want 2", len(config.Users))
	}
	if config.Users[0].ID != "alice" || len(config.Users[0].Tokens) != 2 {
		t.Errorf("first user = %+v", config.Users[0])
	}
}

func TestLoaderLoadWithTemplateVariables(t *testing.T) {
	t.Setenv("KEEPMARK_TEST_TOKEN", `tok"en`)
	path := writeUsersFile(t, `users:
  - id: alice
    tokens:
      - {{KEEPMARK_TEST_TOKEN}}
`)

	config, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := config.Users[0].Tokens[0]; got != `tok"en` {
		t.Errorf("token = %q, want %q", got, `tok"en`)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/users.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	lookup := func(name string) string {
		if name == "SET" {
			return "value"
		}
		return ""
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "set variable", input: "token: {{SET}}", expected: `token: "value"`},
		{name: "spaces inside braces", input: "token: {{ SET }}", expected: `token: "value"`},
		{name: "unset variable", input: "token: {{MISSING}}", expected: `token: ""`},
		{name: "no template", input: "plain text", expected: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandTemplateVariables([]byte(tt.input), lookup)
			if string(result) != tt.expected {
				t.Errorf("expandTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
