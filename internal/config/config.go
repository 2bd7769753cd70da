package config

import "os"

// Config holds the server's environment configuration. The GitHub token is
// optional; without it the provider serves the lower unauthenticated rate
// ceiling, and callers can still supply their own token per request.
type Config struct {
	Port        string
	GitHubToken string
	Debug       bool
}

// Load reads configuration from the environment. Call godotenv.Load first if
// a .env file should be honored.
func Load() *Config {
	cfg := &Config{
		Port:        os.Getenv("PORT"),
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		Debug:       os.Getenv("DEBUG") == "true",
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg
}
