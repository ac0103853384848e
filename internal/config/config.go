package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the process-wide settings shared by every entry
// point. Values come from the environment with a .env file overlay.
type Config struct {
	DataDir     string
	OutputDir   string
	TCPAddr     string
	HTTPAddr    string
	OllamaURL   string
	OllamaModel string
	SeqURL      string
	CORSOrigin  string
	SessionKey  string
}

// Load reads configuration from .env (if present) and the
// environment. Every value has a working default for local use.
func Load() Config {
	// A missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	return Config{
		DataDir:     getenv("DATALENS_DATA_DIR", "data"),
		OutputDir:   getenv("DATALENS_OUTPUT_DIR", "output"),
		TCPAddr:     getenv("DATALENS_TCP_ADDR", ":4444"),
		HTTPAddr:    getenv("DATALENS_HTTP_ADDR", ":8080"),
		OllamaURL:   getenv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getenv("OLLAMA_MODEL", "llama3.2"),
		SeqURL:      os.Getenv("SEQ_URL"),
		CORSOrigin:  getenv("DATALENS_CORS_ORIGIN", "http://localhost:3000"),
		SessionKey:  getenv("DATALENS_SESSION_KEY", "datalens-session"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
