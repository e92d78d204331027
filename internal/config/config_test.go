package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, 3, cfg.RAG.MaxRelevanceChecks)
	assert.Equal(t, support.DefaultKeywords(), cfg.Support.Keywords)

	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "wayfinder.yaml", `
log:
  level: debug
server:
  addr: ":9090"
  read_timeout: 5s
redis:
  addr: localhost:6379
  ttl: 24h
rag:
  top_k: 5
  max_relevance_checks: 2
support:
  keywords:
    billing: [invoice, subscription]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout, "unset fields keep defaults")
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 2, cfg.RAG.MaxRelevanceChecks)
	assert.Equal(t, []string{"invoice", "subscription"}, cfg.Support.Keywords.Billing)
	assert.Equal(t, support.DefaultKeywords().Urgent, cfg.Support.Keywords.Urgent)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "wayfinder.json", `{"llm": {"model": "local-llama", "base_url": "http://localhost:11434/v1"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local-llama", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "wayfinder.yaml", "server:\n  addr: \":9090\"\n")
	t.Setenv("WAYFINDER_SERVER_ADDR", ":7070")
	t.Setenv("WAYFINDER_REDIS_TTL", "90m")
	t.Setenv("WAYFINDER_METRICS_ENABLED", "false")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("WAYFINDER_MAX_STEPS", "40")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 90*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "sk-fallback", cfg.LLM.APIKey)
	assert.Equal(t, 40, cfg.Limits.MaxSteps)

	t.Setenv("WAYFINDER_LLM_API_KEY", "sk-primary")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-primary", cfg.LLM.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "zero.yaml", "rag:\n  top_k: 0\n"))
	assert.ErrorContains(t, err, "rag.top_k")

	t.Setenv("WAYFINDER_REDIS_DB", "one")
	_, err = Load("")
	assert.ErrorContains(t, err, "WAYFINDER_REDIS_DB")
}

func TestValidate_LogFormat(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestStoreConfig_Keys(t *testing.T) {
	active, fallbacks, err := StoreConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallbacks)

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	active, fallbacks, err = StoreConfig{EncryptionKey: key, FallbackKeys: []string{key}}.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallbacks, 1)

	_, _, err = StoreConfig{EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}.Keys()
	assert.ErrorContains(t, err, "32 bytes")

	_, _, err = StoreConfig{EncryptionKey: "%%%"}.Keys()
	assert.Error(t, err)
}

func TestLoad_StoreEnv(t *testing.T) {
	t.Setenv("WAYFINDER_STORE_MASK_FIELDS", "^user_id$,email")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"^user_id$", "email"}, cfg.Store.MaskFields)

	t.Setenv("WAYFINDER_STORE_MASK_FIELDS", "(")
	_, err = Load("")
	assert.ErrorContains(t, err, "store.mask_fields")
}
