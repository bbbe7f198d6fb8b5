package main

import (
	"fmt"
	"strings"

	"github.com/scott-cotton/cli"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

type addConfig struct {
	*cli.Command
	app *app

	JSON bool `cli:"name=json aliases=j desc='print JSON instead of YAML'"`
}

// AddCommand returns the add subcommand.
func AddCommand(a *app) *cli.Command {
	cfg := &addConfig{app: a}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "add").
		WithSynopsis("add <table> <rows.yaml|->").
		WithDescription("Insert the rows of a YAML or JSON document with one Add action.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *addConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return usageErr("usage: appsheet add <table> <rows.yaml|->")
	}
	rows, err := readRows(args[1], cc.In)
	if err != nil {
		return err
	}
	client, err := cfg.app.client()
	if err != nil {
		return err
	}
	resp, err := client.Add(cfg.app.ctx, args[0], rows)
	if err != nil {
		return err
	}
	added, err := resp.Rows()
	if err != nil {
		return err
	}
	writeHeader(cc.Out, "added %d row(s) to %s", len(added), args[0])
	return writeValue(cc.Out, added, cfg.JSON)
}

type editConfig struct {
	*cli.Command
	app *app

	Key  string `cli:"name=key aliases=k desc='key column that must be present in the row'"`
	Diff bool   `cli:"name=diff aliases=d desc='show the row before and after the edit (needs -key)'"`
	JSON bool   `cli:"name=json aliases=j desc='print JSON instead of YAML'"`
}

// EditCommand returns the edit subcommand.
func EditCommand(a *app) *cli.Command {
	cfg := &editConfig{app: a}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "edit").
		WithAliases("e").
		WithSynopsis("edit <table> <row.yaml|-> [-key C] [-diff]").
		WithDescription("Update one row with an Edit action. The row must carry every key column.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *editConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return usageErr("usage: appsheet edit <table> <row.yaml|-> [-key C] [-diff]")
	}
	if cfg.Diff && cfg.Key == "" {
		return usageErr("-diff requires -key")
	}
	table := args[0]
	rows, err := readRows(args[1], cc.In)
	if err != nil {
		return err
	}
	if len(rows) != 1 {
		return usageErr("edit takes exactly one row, got %d", len(rows))
	}
	row := rows[0]

	client, err := cfg.app.client()
	if err != nil {
		return err
	}

	var before appsheet.Row
	if cfg.Diff {
		before, err = cfg.fetch(client, table, row)
		if err != nil {
			return err
		}
	}

	resp, err := client.Edit(cfg.app.ctx, table, cfg.Key, row)
	if err != nil {
		return err
	}

	if cfg.Diff {
		after, err := cfg.fetch(client, table, row)
		if err != nil {
			return err
		}
		writeHeader(cc.Out, "%s %s", table, appsheet.SingleKey(cfg.Key, row[cfg.Key]))
		writeDiff(cc.Out, lineDiff(rowYAML(before), rowYAML(after)))
		return nil
	}
	return writeValue(cc.Out, resp, cfg.JSON)
}

func (cfg *editConfig) fetch(client *appsheet.Client, table string, row appsheet.Row) (appsheet.Row, error) {
	value, ok := row[cfg.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", appsheet.ErrMissingKeyColumn, cfg.Key)
	}
	found, err := client.Find(cfg.app.ctx, table, &appsheet.Query{
		Selector: appsheet.BuildSelector(table, cfg.Key, value),
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

type deleteConfig struct {
	*cli.Command
	app *app

	Column string `cli:"name=column aliases=c desc='key column of a single key table'"`
	Value  string `cli:"name=value desc='key value of the row to delete'"`
	Keys   string `cli:"name=keys desc='all key columns of a composite key, as col=val,col=val'"`
	JSON   bool   `cli:"name=json aliases=j desc='print JSON instead of YAML'"`
}

// DeleteCommand returns the delete subcommand.
func DeleteCommand(a *app) *cli.Command {
	cfg := &deleteConfig{app: a}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "delete").
		WithAliases("rm").
		WithSynopsis("delete <table> (-column C -value V | -keys col=val,...)").
		WithDescription("Delete one row with a Delete action.").
		WithOpts(opts...).
		WithRun(cfg.run)
}

func (cfg *deleteConfig) run(cc *cli.Context, args []string) error {
	args, err := cfg.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageErr("usage: appsheet delete <table> (-column C -value V | -keys col=val,...)")
	}
	key, err := cfg.rowKey()
	if err != nil {
		return err
	}
	client, err := cfg.app.client()
	if err != nil {
		return err
	}
	resp, err := client.Delete(cfg.app.ctx, args[0], key)
	if err != nil {
		return err
	}
	writeHeader(cc.Out, "deleted %s from %s", key, args[0])
	return writeValue(cc.Out, resp, cfg.JSON)
}

func (cfg *deleteConfig) rowKey() (appsheet.RowKey, error) {
	switch {
	case cfg.Keys != "" && cfg.Column != "":
		return appsheet.RowKey{}, usageErr("use either -column/-value or -keys")
	case cfg.Keys != "":
		cols, err := parseKeyPairs(cfg.Keys)
		if err != nil {
			return appsheet.RowKey{}, err
		}
		return appsheet.CompositeKey(cols), nil
	case cfg.Column != "":
		return appsheet.SingleKey(cfg.Column, cfg.Value), nil
	}
	return appsheet.RowKey{}, usageErr("a key is required: -column C -value V or -keys col=val,...")
}

// parseKeyPairs reads "col=val,col=val".
func parseKeyPairs(raw string) (appsheet.Row, error) {
	cols := appsheet.Row{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		col, val, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, usageErr("argument %q expected col=val", part)
		}
		cols[strings.TrimSpace(col)] = val
	}
	if len(cols) == 0 {
		return nil, usageErr("-keys is empty")
	}
	return cols, nil
}
