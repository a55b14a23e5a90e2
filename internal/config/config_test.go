package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetEnv pins every variable Load reads so the host environment cannot
// leak into the test.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY",
		"GRAPHITI_INTERPRETER", "GRAPHITI_INTERPRETER_MODEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoadRequiresPassword(t *testing.T) {
	resetEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPassword)
}

func TestLoadDefaults(t *testing.T) {
	resetEnv(t)
	t.Setenv("NEO4J_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, "neo4j", cfg.Neo4jUser)
	assert.Equal(t, "secret", cfg.Neo4jPassword)
	assert.Equal(t, "openai", cfg.Interpreter.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Interpreter.Model)
	assert.Equal(t, "json", cfg.Defaults.Output)
}

func TestLoadEnvOverrides(t *testing.T) {
	resetEnv(t)
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("NEO4J_URI", "bolt://graph.internal:7687")
	t.Setenv("NEO4J_USER", "svc")
	t.Setenv("GRAPHITI_INTERPRETER", "google")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://graph.internal:7687", cfg.Neo4jURI)
	assert.Equal(t, "svc", cfg.Neo4jUser)
	assert.Equal(t, "google", cfg.Interpreter.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.Interpreter.Model)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	resetEnv(t)
	t.Setenv("NEO4J_PASSWORD", "secret")

	home := os.Getenv("HOME")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".graphiti"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, ".graphiti", "config.yaml"),
		[]byte("output: pretty\ngroup_ids:\n  - project_x\ninterpreter:\n  provider: anthropic\n  temperature: 0.4\n"),
		0o644,
	))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pretty", cfg.Defaults.Output)
	assert.Equal(t, []string{"project_x"}, cfg.Defaults.GroupIDs)
	assert.Equal(t, "anthropic", cfg.Interpreter.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.Interpreter.Model)
	assert.Equal(t, 0.4, cfg.Interpreter.Temperature)
}

func TestLoadBadConfigFile(t *testing.T) {
	resetEnv(t)
	t.Setenv("NEO4J_PASSWORD", "secret")

	home := os.Getenv("HOME")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".graphiti"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, ".graphiti", "config.yaml"),
		[]byte("output: [unclosed"),
		0o644,
	))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.yaml")
}

func TestInterpreterKey(t *testing.T) {
	cfg := &Config{
		OpenAIKey:    "openai-key",
		AnthropicKey: "anthropic-key",
		GoogleKey:    "google-key",
	}

	cfg.Interpreter.Provider = "openai"
	assert.Equal(t, "openai-key", cfg.InterpreterKey())

	cfg.Interpreter.Provider = "anthropic"
	assert.Equal(t, "anthropic-key", cfg.InterpreterKey())

	cfg.Interpreter.Provider = "google"
	assert.Equal(t, "google-key", cfg.InterpreterKey())
}
