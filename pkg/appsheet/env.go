package appsheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvAppID          = "APPSHEET_APP_ID"
	EnvAccessKey      = "APPSHEET_ACCESS_KEY"
	EnvAPIKey         = "APPSHEET_API_KEY"
	EnvBaseURL        = "APPSHEET_BASE_URL"
	EnvLocale         = "APPSHEET_LOCALE"
	EnvTimezone       = "APPSHEET_TIMEZONE"
	EnvRunAsUserEmail = "APPSHEET_RUN_AS_USER_EMAIL"
	EnvDotEnv         = "APPSHEET_DOTENV"

	defaultDotEnv = ".env"
)

// LoadDotEnv merges KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Variables already set win, and missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{defaultDotEnv}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("appsheet: load %s: %w", p, err)
		}
	}
	return nil
}

// ConfigFromEnv builds a Config from APPSHEET_* variables after loading the
// .env file named by APPSHEET_DOTENV (default ".env"). APPSHEET_API_KEY is
// accepted in place of APPSHEET_ACCESS_KEY.
func ConfigFromEnv() (Config, error) {
	dotenv := strings.TrimSpace(os.Getenv(EnvDotEnv))
	if dotenv == "" {
		dotenv = defaultDotEnv
	}
	if err := LoadDotEnv(dotenv); err != nil {
		return Config{}, err
	}

	accessKey := strings.TrimSpace(os.Getenv(EnvAccessKey))
	if accessKey == "" {
		accessKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	cfg := Config{
		AppID:          strings.TrimSpace(os.Getenv(EnvAppID)),
		AccessKey:      accessKey,
		BaseURL:        strings.TrimSpace(os.Getenv(EnvBaseURL)),
		Locale:         strings.TrimSpace(os.Getenv(EnvLocale)),
		Timezone:       strings.TrimSpace(os.Getenv(EnvTimezone)),
		RunAsUserEmail: strings.TrimSpace(os.Getenv(EnvRunAsUserEmail)),
	}
	if err := cfg.Validate(); err != nil {
		return cfg.withDefaults(), fmt.Errorf("%w (set %s and %s)", err, EnvAppID, EnvAccessKey)
	}
	return cfg.withDefaults(), nil
}

// NewFromEnv initialises an HTTP Client from ConfigFromEnv.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}
