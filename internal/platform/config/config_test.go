package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "CAD", cfg.DefaultCurrency)
	assert.Equal(t, JournalFile, cfg.Journal)
	assert.Equal(t, "en-CA", cfg.Locale)
	assert.NotEmpty(t, cfg.SessionPath)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DIGIBANK_BASE_URL", "https://bank.example/api")
	t.Setenv("DIGIBANK_PAGE_SIZE", "50")
	t.Setenv("DIGIBANK_SUBMIT_TIMEOUT", "3s")
	t.Setenv("DIGIBANK_JOURNAL", "memory")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://bank.example/api", cfg.BaseURL)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 3*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, JournalMemory, cfg.Journal)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("DIGIBANK_BASE_URL", "https://env.example/api")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--base-url", "https://flag.example/api", "--timezone", "America/Toronto"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example/api", cfg.BaseURL)
	assert.Equal(t, "America/Toronto", cfg.Location().String())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digibank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_size: 10\nlocale: fr-CA\n"), 0o600))
	t.Setenv("DIGIBANK_CONFIG", path)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "fr-CA", cfg.Locale)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"relative base url", map[string]string{"DIGIBANK_BASE_URL": "/api"}},
		{"page size too large", map[string]string{"DIGIBANK_PAGE_SIZE": "101"}},
		{"page size zero", map[string]string{"DIGIBANK_PAGE_SIZE": "0"}},
		{"zero submit timeout", map[string]string{"DIGIBANK_SUBMIT_TIMEOUT": "0s"}},
		{"unknown journal", map[string]string{"DIGIBANK_JOURNAL": "s3"}},
		{"redis journal without url", map[string]string{"DIGIBANK_JOURNAL": "redis"}},
		{"bad timezone", map[string]string{"DIGIBANK_TIMEZONE": "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}
