// Package config loads service configuration from environment variables,
// with typed fallbacks, plus an optional YAML rules file that carries the
// recognition vocabulary (modality priority, download-link patterns,
// highlight classes, watcher keywords).
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the service surfaces need. Core pipeline packages
// never read this directly; they take explicit arguments.
type Config struct {
	ServerPort string
	LogLevel   string

	WatchDir      string
	WatchKeywords []string
	SettleDelay   time.Duration

	AutomationURL     string
	AutomationTimeout time.Duration
	AutomationLegacy  bool
	DevToolsURL       string

	APIURL    string
	APIKey    string
	Model     string
	MaxTokens int

	HistoryPath      string
	InstructionsPath string
	RulesPath        string
}

// Load reads configuration from environment variables.
func Load() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ServerPort: getEnv("TASKLENS_PORT", "5111"),
		LogLevel:   getEnv("TASKLENS_LOG_LEVEL", "info"),

		WatchDir:      getEnv("TASKLENS_WATCH_DIR", filepath.Join(home, "Downloads")),
		WatchKeywords: getEnvAsList("TASKLENS_WATCH_KEYWORDS", []string{"styx", "obsidian", "task"}),
		SettleDelay:   getEnvAsDuration("TASKLENS_SETTLE_SECONDS", 2),

		AutomationURL:     getEnv("TASKLENS_AUTOMATION_URL", "http://localhost:3004/automation"),
		AutomationTimeout: getEnvAsDuration("TASKLENS_AUTOMATION_TIMEOUT_SECONDS", 5),
		AutomationLegacy:  getEnvAsBool("TASKLENS_AUTOMATION_LEGACY", false),
		DevToolsURL:       getEnv("TASKLENS_DEVTOOLS_URL", ""),

		APIURL:    getEnv("TASKLENS_API_URL", ""),
		APIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		Model:     getEnv("TASKLENS_MODEL", "claude-sonnet-4-5"),
		MaxTokens: getEnvAsInt("TASKLENS_MAX_TOKENS", 8192),

		HistoryPath:      getEnv("TASKLENS_HISTORY_DB", "tasklens.db"),
		InstructionsPath: getEnv("TASKLENS_INSTRUCTIONS", "instructions.md"),
		RulesPath:        getEnv("TASKLENS_RULES", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallbackSeconds)) * time.Second
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
