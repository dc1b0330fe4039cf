package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/meetingd/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithToken(t *testing.T) {
	t.Setenv("MEETINGD_LLM_TOKEN", "sk-test")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.Token)
	assert.Equal(t, "meetings", cfg.VectorStore.Collection)
	assert.Equal(t, "meetingd.mentions", cfg.Chat.MentionSubject)
	assert.NotEmpty(t, cfg.Ledger.Path)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoad_MissingTokenFails(t *testing.T) {
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm token")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
logging:
  level: debug
  format: console
llm:
  token: sk-from-file
  model: gpt-4o
chat:
  summary_channel: C-summaries
  provider: linear
providers:
  linear:
    api_key: lin_key
    team_id: team-1
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "C-summaries", cfg.Chat.SummaryChannel)
	assert.Equal(t, "lin_key", cfg.Providers.Linear.APIKey)
	assert.Equal(t, "team-1", cfg.Providers.Linear.TeamID)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
llm:
  token: sk-from-file
`)
	t.Setenv("MEETINGD_SERVER_PORT", "9100")
	t.Setenv("MEETINGD_LLM_TOKEN", "sk-from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sk-from-env", cfg.LLM.Token)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MEETINGD_LLM_TOKEN", "sk-test")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoad_InvalidYAMLFails(t *testing.T) {
	path := writeConfig(t, "server: [not: valid")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestValidate_PartialProviderConfig(t *testing.T) {
	t.Setenv("MEETINGD_LLM_TOKEN", "sk-test")
	t.Setenv("MEETINGD_PROVIDERS_GITHUB_TOKEN", "ghp_x")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github repo")
}

func TestValidate_BadFormat(t *testing.T) {
	t.Setenv("MEETINGD_LLM_TOKEN", "sk-test")
	t.Setenv("MEETINGD_LOGGING_FORMAT", "xml")

	_, err := config.Load("")
	require.Error(t, err)
}
