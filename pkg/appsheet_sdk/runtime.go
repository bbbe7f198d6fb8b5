package appsheet_sdk

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet/mock"
)

const (
	EnvRuntimeMode = "APPSHEET_RUNTIME_MODE"
	EnvMockSeed    = "APPSHEET_MOCK_SEED"
)

// Mode is the resolved runtime mode.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeHTTP Mode = "http"
	ModeMock Mode = "mock"
)

// NewFromEnv initialises a Client according to APPSHEET_RUNTIME_MODE and
// returns the resolved mode. In mock mode the backing store is returned as
// well so callers can define tables or inspect rows; it is nil in http mode.
func NewFromEnv(opts ...appsheet.Option) (*appsheet.Client, *mock.Store, Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(os.Getenv(EnvRuntimeMode))))
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeAuto:
		cfg, err := appsheet.ConfigFromEnv()
		if errors.Is(err, appsheet.ErrInvalidConfig) {
			glog.V(1).Infof("[appsheet] no credentials configured, using mock runtime")
			return newMockClient(cfg)
		}
		if err != nil {
			return nil, nil, "", err
		}
		return newHTTPClient(cfg, opts)
	case ModeHTTP:
		cfg, err := appsheet.ConfigFromEnv()
		if err != nil {
			return nil, nil, "", fmt.Errorf("appsheet_sdk: HTTP mode: %w", err)
		}
		return newHTTPClient(cfg, opts)
	case ModeMock:
		cfg, err := appsheet.ConfigFromEnv()
		if err != nil && !errors.Is(err, appsheet.ErrInvalidConfig) {
			return nil, nil, "", err
		}
		return newMockClient(cfg)
	default:
		return nil, nil, "", fmt.Errorf("appsheet_sdk: unsupported %s value %q", EnvRuntimeMode, mode)
	}
}

func newHTTPClient(cfg appsheet.Config, opts []appsheet.Option) (*appsheet.Client, *mock.Store, Mode, error) {
	client, err := appsheet.New(cfg, opts...)
	if err != nil {
		return nil, nil, "", fmt.Errorf("appsheet_sdk: init HTTP client: %w", err)
	}
	return client, nil, ModeHTTP, nil
}

func newMockClient(cfg appsheet.Config) (*appsheet.Client, *mock.Store, Mode, error) {
	store := mock.New()
	if path := strings.TrimSpace(os.Getenv(EnvMockSeed)); path != "" {
		if err := store.LoadSeed(path); err != nil {
			return nil, nil, "", fmt.Errorf("appsheet_sdk: apply mock seed: %w", err)
		}
	}
	return appsheet.NewWithBackend(cfg, store), store, ModeMock, nil
}
