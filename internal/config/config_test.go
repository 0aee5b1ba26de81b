package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/go-revenue-forecaster/internal/ingest"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		CredentialEnv,
		"REVFORECAST_COMMENTARY_API_KEY",
		"REVFORECAST_SERVER_ADDR",
		"REVFORECAST_FORECAST_MAX_DAYS",
		"REVFORECAST_INGEST_ROW_POLICY",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(CredentialEnv, "gsk_test")
	dir := t.TempDir()

	cfg, err := Load(LoadOptions{
		EnvFile:           filepath.Join(dir, ".env"),
		SecretsFile:       filepath.Join(dir, "secrets.toml"),
		RequireCredential: true,
	})
	require.Nil(t, err)

	assert.Equal(t, "gsk_test", cfg.Commentary.APIKey)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Commentary.BaseURL)
	assert.Equal(t, "llama3-8b-8192", cfg.Commentary.Model)
	assert.Equal(t, 60*time.Second, cfg.Commentary.Timeout)
	assert.Equal(t, 180, cfg.Forecast.DefaultDays)
	assert.Equal(t, 720, cfg.Forecast.MaxDays)
	assert.Equal(t, 0.8, cfg.Forecast.IntervalWidth)
	assert.False(t, cfg.Forecast.Outliers)
	assert.Equal(t, "Date", cfg.Ingest.DateColumn)
	assert.Equal(t, "Revenue", cfg.Ingest.ValueColumn)
	assert.Equal(t, ingest.RowPolicyDrop, cfg.Ingest.RowPolicy)
}

func TestLoadCredentialSources(t *testing.T) {
	testData := map[string]struct {
		env      map[string]string
		dotenv   string
		secrets  string
		require  bool
		expected string
		missing  bool
	}{
		"missing credential halts": {
			require: true,
			missing: true,
		},
		"missing credential allowed": {
			require:  false,
			expected: "",
		},
		"groq env": {
			env:      map[string]string{CredentialEnv: "from-env"},
			require:  true,
			expected: "from-env",
		},
		"prefixed env": {
			env:      map[string]string{"REVFORECAST_COMMENTARY_API_KEY": "from-prefixed"},
			require:  true,
			expected: "from-prefixed",
		},
		"secrets file": {
			secrets:  "GROQ_API_KEY = \"from-secrets\"\n",
			require:  true,
			expected: "from-secrets",
		},
		"env overrides secrets": {
			env:      map[string]string{CredentialEnv: "from-env"},
			secrets:  "GROQ_API_KEY = \"from-secrets\"\n",
			require:  true,
			expected: "from-env",
		},
		"dotenv file": {
			dotenv:   "GROQ_API_KEY=from-dotenv\n",
			require:  true,
			expected: "from-dotenv",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			// godotenv does not override variables that are already set, even when empty
			os.Unsetenv(CredentialEnv)
			for k, v := range td.env {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			opts := LoadOptions{
				EnvFile:           filepath.Join(dir, ".env"),
				SecretsFile:       filepath.Join(dir, "secrets.toml"),
				RequireCredential: td.require,
			}
			if td.dotenv != "" {
				writeFile(t, dir, ".env", td.dotenv)
			}
			if td.secrets != "" {
				writeFile(t, dir, "secrets.toml", td.secrets)
			}

			cfg, err := Load(opts)
			if td.missing {
				var credErr *MissingCredentialError
				require.ErrorAs(t, err, &credErr)
				assert.Contains(t, credErr.Error(), CredentialEnv)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, cfg.Commentary.APIKey)
		})
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(CredentialEnv, "key")
	t.Setenv("REVFORECAST_SERVER_ADDR", ":9090")

	dir := t.TempDir()
	cfgFile := writeFile(t, dir, "revforecast.yaml", `
server:
  addr: ":7070"
  rate_limit: 5
forecast:
  default_days: 30
  max_days: 60
  holidays: US
ingest:
  row_policy: abort
log:
  format: json
`)

	cfg, err := Load(LoadOptions{
		ConfigFile:        cfgFile,
		EnvFile:           filepath.Join(dir, ".env"),
		RequireCredential: true,
	})
	require.Nil(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)
	assert.Equal(t, 30, cfg.Forecast.DefaultDays)
	assert.Equal(t, 60, cfg.Forecast.MaxDays)
	assert.Equal(t, "US", cfg.Forecast.Holidays)
	assert.Equal(t, ingest.RowPolicyAbort, cfg.Ingest.RowPolicy)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadInvalid(t *testing.T) {
	testData := map[string]struct {
		yaml  string
		field string
	}{
		"row policy": {
			yaml:  "ingest:\n  row_policy: skip\n",
			field: "RowPolicy",
		},
		"default beyond max": {
			yaml:  "forecast:\n  default_days: 900\n",
			field: "DefaultDays",
		},
		"interval width": {
			yaml:  "forecast:\n  interval_width: 1.5\n",
			field: "IntervalWidth",
		},
		"holidays": {
			yaml:  "forecast:\n  holidays: FR\n",
			field: "Holidays",
		},
		"log level": {
			yaml:  "log:\n  level: loud\n",
			field: "Level",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(CredentialEnv, "key")
			dir := t.TempDir()
			cfgFile := writeFile(t, dir, "cfg.yaml", td.yaml)

			_, err := Load(LoadOptions{
				ConfigFile:        cfgFile,
				RequireCredential: true,
			})
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.NotEmpty(t, verrs)
			assert.Equal(t, td.field, verrs[0].Field())
		})
	}
}

func TestLoadMissingCredentialCheckedFirst(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(CredentialEnv)
	dir := t.TempDir()
	cfgFile := writeFile(t, dir, "cfg.yaml", "ingest:\n  row_policy: skip\n")

	_, err := Load(LoadOptions{
		ConfigFile:        cfgFile,
		EnvFile:           filepath.Join(dir, ".env"),
		RequireCredential: true,
	})
	var credErr *MissingCredentialError
	assert.ErrorAs(t, err, &credErr)
}

func TestCommentaryLogValue(t *testing.T) {
	c := CommentaryConfig{APIKey: "secret", Model: "m"}
	assert.NotContains(t, c.LogValue().String(), "secret")
}
