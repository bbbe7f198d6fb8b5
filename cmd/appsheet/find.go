package main

import (
	"github.com/scott-cotton/cli"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

type findConfig struct {
	*cli.Command
	app *app

	Selector string `cli:"name=selector aliases=s desc='server side selector, e.g. Filter(T, [Col] = 1)'"`
	Value    string `cli:"name=value desc='keep rows where a column equals this value'"`
	Column   string `cli:"name=column aliases=c desc='column compared with -value (default: any column)'"`
	JSON     bool   `cli:"name=json aliases=j desc='print JSON instead of YAML'"`
}

// FindCommand returns the find subcommand.
func FindCommand(a *app) *cli.Command {
	cfg := &findConfig{app: a}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "find").
		WithAliases("f").
		WithSynopsis("find <table> [-selector S] [-value V [-column C]] [-json]").
		WithDescription("Fetch rows of a table with one Find action.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *findConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageErr("usage: appsheet find <table> [opts]")
	}
	if cfg.Column != "" && cfg.Value == "" {
		return usageErr("-column requires -value")
	}
	table := args[0]

	client, err := cfg.app.client()
	if err != nil {
		return err
	}
	q := &appsheet.Query{Selector: cfg.Selector, TargetColumn: cfg.Column}
	if cfg.Value != "" {
		q.Value = cfg.Value
	}
	rows, err := client.Find(cfg.app.ctx, table, q)
	if err != nil {
		return err
	}
	writeHeader(cc.Out, "%d row(s) from %s", len(rows), table)
	return writeValue(cc.Out, rows, cfg.JSON)
}
