// Package config provides configuration loading for meetingd.
//
// Configuration is read from a YAML file, then overridden by MEETINGD_*
// environment variables. Defaults make a bare config usable for local
// development with only the LLM token supplied.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the complete meetingd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	LLM         LLMConfig         `koanf:"llm"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Store       StoreConfig       `koanf:"store"`
	Ledger      LedgerConfig      `koanf:"ledger"`
	NoteSource  NoteSourceConfig  `koanf:"notesource"`
	Chat        ChatConfig        `koanf:"chat"`
	Providers   ProvidersConfig   `koanf:"providers"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// LLMConfig holds completion model configuration.
type LLMConfig struct {
	Token   string `koanf:"token"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// EmbeddingsConfig holds embedding model configuration.
type EmbeddingsConfig struct {
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// VectorStoreConfig holds the vector index configuration.
type VectorStoreConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
}

// StoreConfig holds the record store configuration.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// LedgerConfig holds the processed-meetings ledger configuration.
type LedgerConfig struct {
	Path string `koanf:"path"`
}

// NoteSourceConfig holds the note-taking service connection.
type NoteSourceConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// ChatConfig holds the broker subjects and chat behavior.
type ChatConfig struct {
	NATSURL        string `koanf:"nats_url"`
	MentionSubject string `koanf:"mention_subject"`
	NotifySubject  string `koanf:"notify_subject"`
	SummaryChannel string `koanf:"summary_channel"`
	Provider       string `koanf:"provider"`
}

// ProvidersConfig holds action provider credentials.
type ProvidersConfig struct {
	GitHub GitHubConfig `koanf:"github"`
	Linear LinearConfig `koanf:"linear"`
}

// GitHubConfig holds GitHub provider credentials.
type GitHubConfig struct {
	Token string `koanf:"token"`
	Repo  string `koanf:"repo"`
}

// LinearConfig holds Linear provider credentials.
type LinearConfig struct {
	APIKey string `koanf:"api_key"`
	TeamID string `koanf:"team_id"`
}

// applyDefaults fills in defaults for unset values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}

	dataDir := defaultDataDir()
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = filepath.Join(dataDir, "vectors")
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "meetings"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(dataDir, "records")
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = filepath.Join(dataDir, "processed.json")
	}

	if cfg.Chat.NATSURL == "" {
		cfg.Chat.NATSURL = "nats://127.0.0.1:4222"
	}
	if cfg.Chat.MentionSubject == "" {
		cfg.Chat.MentionSubject = "meetingd.mentions"
	}
	if cfg.Chat.NotifySubject == "" {
		cfg.Chat.NotifySubject = "meetingd.notify"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port))
	}
	if c.LLM.Token == "" {
		errs = append(errs, errors.New("llm token is required"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging format must be json or console, got %q", c.Logging.Format))
	}
	if c.Providers.GitHub.Token != "" && c.Providers.GitHub.Repo == "" {
		errs = append(errs, errors.New("github repo is required when a github token is set"))
	}
	if c.Providers.Linear.APIKey != "" && c.Providers.Linear.TeamID == "" {
		errs = append(errs, errors.New("linear team_id is required when a linear api key is set"))
	}

	return errors.Join(errs...)
}

// defaultDataDir returns the per-user data directory for meetingd state.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".meetingd")
	}
	return filepath.Join(home, ".local", "share", "meetingd")
}
