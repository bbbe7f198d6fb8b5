package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

// SelectorCommand returns the selector subcommand.
func SelectorCommand() *cli.Command {
	return cli.NewCommand("selector").
		WithAliases("sel").
		WithSynopsis("selector <table> <column> <op> <value>").
		WithDescription("Print the Filter expression for a comparison. op is one of = <> != > >= < <=.").
		WithRun(func(cc *cli.Context, args []string) error {
			if len(args) != 4 {
				return usageErr("usage: appsheet selector <table> <column> <op> <value>")
			}
			op, err := appsheet.ParseOperator(args[2])
			if err != nil {
				return usageErr("%v", err)
			}
			fmt.Fprintln(cc.Out, appsheet.BuildSelectorOp(args[0], args[1], op, args[3]))
			return nil
		})
}

type keyConfig struct {
	*cli.Command

	Sep string `cli:"name=sep desc='separator between values'"`
}

// KeyCommand returns the key subcommand.
func KeyCommand() *cli.Command {
	cfg := &keyConfig{Sep: appsheet.DefaultKeySeparator}
	opts, _ := cli.StructOpts(cfg)
	return cli.NewCommandAt(&cfg.Command, "key").
		WithSynopsis("key [-sep S] <values...>").
		WithDescription("Print the _ComputedKey value for key values given in key column order.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			args, err := cfg.Parse(cc, args)
			if err != nil {
				return err
			}
			values := make([]any, len(args))
			for i, a := range args {
				values[i] = a
			}
			key, err := appsheet.BuildCompositeKeySep(cfg.Sep, values...)
			if err != nil {
				return usageErr("%v", err)
			}
			fmt.Fprintln(cc.Out, key)
			return nil
		})
}
