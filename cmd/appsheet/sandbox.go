package main

import (
	"fmt"
	"time"

	"github.com/scott-cotton/cli"

	"github.com/appsheetkit/appsheet_sdk_go/internal/sandbox"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet/mock"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet_sdk"
)

type sandboxConfig struct {
	*cli.Command
	app *app

	Addr      string `cli:"name=addr desc='listen address'"`
	Seed      string `cli:"name=seed desc='YAML seed file with tables, keys and rows'"`
	Fail      string `cli:"name=fail desc='failure injection (rate=<float>,code=<httpStatus>)'"`
	AccessKey string `cli:"name=access-key desc='require this ApplicationAccessKey'"`
	AppID     string `cli:"name=app desc='only accept this app id'"`

	latency time.Duration
}

func (cfg *sandboxConfig) latencyOpt(_ *cli.Context, a string) (any, error) {
	d, err := time.ParseDuration(a)
	if err != nil {
		return nil, usageErr("latency: %v", err)
	}
	cfg.latency = d
	return d, nil
}

// SandboxCommand returns the sandbox subcommand.
func SandboxCommand(a *app) *cli.Command {
	cfg := &sandboxConfig{app: a, Addr: ":8787"}
	opts, _ := cli.StructOpts(cfg)
	opts = append(opts, &cli.Opt{
		Name:        "latency",
		Description: "artificial latency to inject per request",
		Type:        cli.NamedFuncOpt(cli.FuncOpt(cfg.latencyOpt), "(duration)"),
	})
	return cli.NewCommandAt(&cfg.Command, "sandbox").
		WithSynopsis("sandbox [-addr A] [-seed F] [-latency D] [-fail rate=R,code=C] [-access-key K] [-app ID]").
		WithDescription("Serve an in-memory Action API for local development.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *sandboxConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 0 {
		return usageErr("sandbox takes no arguments")
	}
	fail, err := sandbox.ParseFailConfig(cfg.Fail)
	if err != nil {
		return usageErr("parse fail flag: %v", err)
	}

	store := mock.New()
	if cfg.Seed != "" {
		if err := store.LoadSeed(cfg.Seed); err != nil {
			return err
		}
	}

	scfg := sandbox.Config{
		Addr:      cfg.Addr,
		AppID:     cfg.AppID,
		AccessKey: cfg.AccessKey,
		Latency:   cfg.latency,
		Fail:      fail,
	}
	appID, key := cfg.AppID, cfg.AccessKey
	if appID == "" {
		appID = "sandbox"
	}
	if key == "" {
		key = "sandbox"
	}

	writeHeader(cc.Out, "appsheet sandbox on %s serving %v", scfg.Addr, store.Tables())
	fmt.Fprintln(cc.Out)
	fmt.Fprintf(cc.Out, "export %s=%s\n", appsheet_sdk.EnvRuntimeMode, appsheet_sdk.ModeHTTP)
	fmt.Fprintf(cc.Out, "export %s=%s\n", appsheet.EnvBaseURL, scfg.BaseURL())
	fmt.Fprintf(cc.Out, "export %s=%s\n", appsheet.EnvAppID, appID)
	fmt.Fprintf(cc.Out, "export %s=%s\n", appsheet.EnvAccessKey, key)
	fmt.Fprintln(cc.Out)

	return sandbox.New(store, scfg).Run(cfg.app.ctx)
}
