package helios

import (
	"os"
	"path/filepath"

	"github.com/helioscover/helios/llm"
)

// Config holds all configuration for the Helios engine.
type Config struct {
	// DBPath is the full path to the SQLite graph cache.
	// If empty, defaults to ~/.helios/helios.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DocsDir is the directory holding policy documents (pdf, xlsx, txt).
	DocsDir string `json:"docs_dir" yaml:"docs_dir"`

	// LLM is the chat backend used for extraction, classification, and
	// explanation alike. Exactly one backend is active per process.
	LLM llm.Config `json:"llm" yaml:"llm"`

	// Temperature and MaxTokens apply to classification and explanation
	// calls. Extraction runs at ExtractionTemperature so triple output
	// stays close to the prompt format.
	Temperature           float64 `json:"temperature" yaml:"temperature"`
	ExtractionTemperature float64 `json:"extraction_temperature" yaml:"extraction_temperature"`
	MaxTokens             int     `json:"max_tokens" yaml:"max_tokens"`
	ExtractionMaxTokens   int     `json:"extraction_max_tokens" yaml:"extraction_max_tokens"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// The graph cache lives in ~/.helios/helios.db by default.
func DefaultConfig() Config {
	return Config{
		DocsDir: "./documents",
		LLM: llm.Config{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Temperature:           0.4,
		ExtractionTemperature: 0.2,
		MaxTokens:             500,
		ExtractionMaxTokens:   2048,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "helios.db" // fallback to cwd
	}
	return filepath.Join(home, ".helios", "helios.db")
}
