package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
	assert.Equal(t, SlotSQLite, cfg.History.Backend)
	assert.Equal(t, "glowreader.history", cfg.History.SlotName)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  writeTimeout: 90s
provider:
  name: openai
  openaiApiKey: sk-test
  model: gpt-4o-mini
cors:
  allowedOrigins: ["https://glow.example"]
history:
  backend: postgres
database:
  host: db
  port: 5432
  user: glow
  password: secret
  name: glowreader
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, []string{"https://glow.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "host=db port=5432 user=glow password=secret dbname=glowreader sslmode=disable", cfg.PostgresDSN())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1,2"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.applyEnv(envOf(map[string]string{
		"OPENAI_API_KEY":        "sk-1",
		"PORT":                  "4000",
		"CLIENT_URL":            "https://front.example/",
		"GLOWREADER_SERVER_URL": "https://api.example",
	})))
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, []string{"https://front.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://api.example", cfg.Client.ServerURL)
}

func TestApplyEnv_GoogleKeyKeepsGemini(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.applyEnv(envOf(map[string]string{"GOOGLE_API_KEY": "g", "OPENAI_API_KEY": "o"})))
	assert.Equal(t, ProviderGemini, cfg.Provider.Name)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadPort(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.applyEnv(envOf(map[string]string{"PORT": "http"})))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "GOOGLE_API_KEY")

	cfg.Provider.GoogleAPIKey = "g"
	cfg.Minio.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "minio")

	cfg.Minio.Endpoint = "minio:9000"
	assert.NoError(t, cfg.Validate())

	cfg.Provider.Name = "claude"
	assert.ErrorContains(t, cfg.Validate(), "unknown provider")
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name = "h", "u", "p", "n"
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}
