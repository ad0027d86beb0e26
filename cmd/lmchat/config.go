package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the CLI fields that may come from a YAML config file.
// File values fill in fields the user left at their flag defaults; explicit
// flags and env vars win.
type fileConfig struct {
	BaseURL     string   `yaml:"baseUrl"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	DraftModel  string   `yaml:"draftModel"`
	System      string   `yaml:"system"`
	LogLevel    string   `yaml:"logLevel"`
}

func applyConfigFile(cli *CLI) error {
	if cli.Config == "" {
		return nil
	}
	data, err := os.ReadFile(cli.Config)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.BaseURL != "" && cli.BaseURL == defaultBaseURL {
		cli.BaseURL = fc.BaseURL
	}
	if fc.Model != "" && cli.Model == "" {
		cli.Model = fc.Model
	}
	if fc.Temperature != nil && cli.Temperature == defaultTemperature {
		cli.Temperature = *fc.Temperature
	}
	if fc.DraftModel != "" && cli.DraftModel == "" {
		cli.DraftModel = fc.DraftModel
	}
	if fc.System != "" && cli.System == defaultSystemPrompt {
		cli.System = fc.System
	}
	if fc.LogLevel != "" && cli.LogLevel == defaultLogLevel {
		cli.LogLevel = fc.LogLevel
	}
	return nil
}

// setupLogger configures the default slog logger from the log level string.
// Valid levels: debug, info, warn, error (case-insensitive).
func setupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
