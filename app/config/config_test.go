package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/llm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CODEGEN_CONFIG", "CODEGEN_LOG_LEVEL", "CODEGEN_HOST", "CODEGEN_PORT",
		"CODEGEN_BACKEND", "CODEGEN_MODEL", "CODEGEN_MODEL_URL", "CODEGEN_API_KEY",
		"HF_TOKEN", "OPENAI_API_KEY", "CODEGEN_CACHE_TTL", "CODEGEN_STORE",
		"CODEGEN_SQLITE_PATH", "MONGO_URI", "MONGO_DB", "CODEGEN_ARTIFACT_DIR",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, llm.BackendHuggingFace, cfg.Model.Backend)
	assert.Equal(t, "Salesforce/codegen-350M-multi", cfg.Model.Name)
	assert.Equal(t, entity.DefaultSamplingParams(), cfg.Sampling)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, []string{"black", "--quiet", "-"}, cfg.FormatterCommands()[entity.LanguagePython])
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "codegen.toml", `
log_level = "debug"

[server]
port = 9090
request_timeout = "45s"

[model]
backend = "ollama"
name = "codellama"

[sampling]
max_tokens = 128
temperature = 0.2

[formatter.commands]
sql = []
python = ["ruff", "format", "-"]

[cache]
ttl = "0s"

[store]
driver = "mongo"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "ollama", cfg.Model.Backend)
	assert.Equal(t, "codellama", cfg.Model.Name)
	assert.Equal(t, 128, cfg.Sampling.MaxTokens)
	assert.Equal(t, 0.2, cfg.Sampling.Temperature)
	assert.Equal(t, 1.0, cfg.Sampling.TopP)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)

	cmds := cfg.FormatterCommands()
	assert.Equal(t, []string{"ruff", "format", "-"}, cmds[entity.LanguagePython])
	assert.Empty(t, cmds[entity.LanguageSQL])
	assert.NotEmpty(t, cmds[entity.LanguageJavaScript])
}

func TestLoadHCL(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "codegen.hcl", `
model {
  backend = "openai"
  name    = "gpt-4o-mini"
  api_key = "sk-file"
}

formatter {
  enabled = false
}

jobs {
  poll_interval = "500ms"
}

artifacts {
  dir = "/tmp/codegen-artifacts"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Model.Backend)
	assert.Equal(t, "sk-file", cfg.Model.APIKey)
	assert.Nil(t, cfg.FormatterCommands())
	assert.Equal(t, 500*time.Millisecond, cfg.Jobs.PollInterval)
	assert.Equal(t, "/tmp/codegen-artifacts", cfg.FileRepo.ArtifactDir)
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "codegen.json", `{"server": {"host": "127.0.0.1", "port": 7000}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "codegen.toml", "[model]\nname = \"from-file\"\n")
	t.Setenv("CODEGEN_MODEL", "bigcode/starcoder")
	t.Setenv("CODEGEN_PORT", "8181")
	t.Setenv("HF_TOKEN", "hf_env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bigcode/starcoder", cfg.Model.Name)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "hf_env", cfg.Model.APIKey)

	t.Setenv("CODEGEN_CONFIG", path)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "bigcode/starcoder", cfg.Model.Name)
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"bad.toml":     "[server]\nport = 70000\n",
		"unknown.toml": "[server]\nportt = 1\n",
		"dur.toml":     "[cache]\nttl = \"soon\"\n",
		"lang.toml":    "[formatter.commands]\ncobol = [\"x\"]\n",
		"topp.toml":    "[sampling]\ntop_p = 0.0\n",
		"store.toml":   "[store]\ndriver = \"postgres\"\n",
		"level.toml":   "log_level = \"loud\"\n",
		"conf.yaml":    "server: {}\n",
		"broken.hcl":   "model {\n",
	}
	for name, content := range cases {
		_, err := Load(writeFile(t, name, content))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	t.Setenv("CODEGEN_PORT", "eighty")
	_, err = Load("")
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	lvl, err = ParseLogLevel(" warn ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
