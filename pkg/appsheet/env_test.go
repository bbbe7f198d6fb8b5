package appsheet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

var envKeys = []string{
	appsheet.EnvAppID,
	appsheet.EnvAccessKey,
	appsheet.EnvAPIKey,
	appsheet.EnvBaseURL,
	appsheet.EnvLocale,
	appsheet.EnvTimezone,
	appsheet.EnvRunAsUserEmail,
	appsheet.EnvDotEnv,
}

// clearEnv unsets every APPSHEET_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(appsheet.EnvDotEnv, filepath.Join(t.TempDir(), "absent.env"))
}

func TestConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(appsheet.EnvAppID, " app-1 ")
	t.Setenv(appsheet.EnvAccessKey, "key-1")
	t.Setenv(appsheet.EnvTimezone, "Europe/Berlin")

	cfg, err := appsheet.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "app-1", cfg.AppID)
	assert.Equal(t, "key-1", cfg.AccessKey)
	assert.Equal(t, appsheet.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, appsheet.DefaultLocale, cfg.Locale)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
}

func TestConfigFromEnvAPIKeyAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv(appsheet.EnvAppID, "app-1")
	t.Setenv(appsheet.EnvAPIKey, "legacy")

	cfg, err := appsheet.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.AccessKey)
}

func TestConfigFromEnvMissingCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv(appsheet.EnvAppID, "app-1")

	_, err := appsheet.ConfigFromEnv()
	require.ErrorIs(t, err, appsheet.ErrInvalidConfig)

	_, err = appsheet.NewFromEnv()
	require.ErrorIs(t, err, appsheet.ErrInvalidConfig)
}

func TestConfigFromDotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"APPSHEET_APP_ID=from-file\nAPPSHEET_ACCESS_KEY=file-key\nAPPSHEET_LOCALE=fr-FR\n",
	), 0o600))
	t.Setenv(appsheet.EnvDotEnv, path)
	t.Setenv(appsheet.EnvAccessKey, "process-key")

	cfg, err := appsheet.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.AppID)
	assert.Equal(t, "process-key", cfg.AccessKey, "process environment wins over the file")
	assert.Equal(t, "fr-FR", cfg.Locale)
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	require.NoError(t, appsheet.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
