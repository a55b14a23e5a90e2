// Package config resolves the CLI's environment contract and the optional
// per-user configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissingPassword = errors.New("NEO4J_PASSWORD environment variable is required")

// InterpreterConfig selects the model used for natural-language queries.
type InterpreterConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// Defaults are user-configurable flag defaults.
type Defaults struct {
	Output   string   `yaml:"output"`
	GroupIDs []string `yaml:"group_ids"`
}

type Config struct {
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string

	Interpreter InterpreterConfig
	Defaults    Defaults
}

type fileConfig struct {
	Output      string            `yaml:"output"`
	GroupIDs    []string          `yaml:"group_ids"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
}

// Load reads .env, the process environment, and ~/.graphiti/config.yaml.
// A missing NEO4J_PASSWORD is an error; a missing OPENAI_API_KEY is not,
// callers decide whether to warn.
func Load() (*Config, error) {
	// A .env file is a convenience, not a requirement.
	_ = godotenv.Load()

	cfg := &Config{
		Neo4jURI:      envOr("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     envOr("NEO4J_USER", "neo4j"),
		Neo4jPassword: os.Getenv("NEO4J_PASSWORD"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		GoogleKey:     os.Getenv("GOOGLE_API_KEY"),
		Interpreter: InterpreterConfig{
			Provider:    envOr("GRAPHITI_INTERPRETER", "openai"),
			Model:       os.Getenv("GRAPHITI_INTERPRETER_MODEL"),
			Temperature: 0.2,
		},
		Defaults: Defaults{
			Output: "json",
		},
	}

	if err := cfg.applyFile(configFilePath()); err != nil {
		return nil, err
	}

	if len(cfg.Interpreter.Model) == 0 {
		cfg.Interpreter.Model = defaultModel(cfg.Interpreter.Provider)
	}

	if len(cfg.Neo4jPassword) == 0 {
		return nil, ErrMissingPassword
	}

	return cfg, nil
}

// InterpreterKey returns the API key matching the configured provider.
func (c *Config) InterpreterKey() string {
	switch c.Interpreter.Provider {
	case "anthropic":
		return c.AnthropicKey
	case "google":
		return c.GoogleKey
	default:
		return c.OpenAIKey
	}
}

func (c *Config) applyFile(path string) error {
	if len(path) == 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(fc.Output) > 0 {
		c.Defaults.Output = fc.Output
	}
	if len(fc.GroupIDs) > 0 {
		c.Defaults.GroupIDs = fc.GroupIDs
	}
	if len(fc.Interpreter.Provider) > 0 {
		c.Interpreter.Provider = fc.Interpreter.Provider
	}
	if len(fc.Interpreter.Model) > 0 {
		c.Interpreter.Model = fc.Interpreter.Model
	}
	if fc.Interpreter.Temperature > 0 {
		c.Interpreter.Temperature = fc.Interpreter.Temperature
	}

	return nil
}

func configFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".graphiti", "config.yaml")
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-sonnet-20241022"
	case "google":
		return "gemini-1.5-flash"
	default:
		return "gpt-4o-mini"
	}
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); len(v) > 0 {
		return v
	}
	return fallback
}
