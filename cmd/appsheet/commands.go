package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

const usageText = `appsheet - read and write AppSheet tables from the command line

Credentials come from APPSHEET_APP_ID and APPSHEET_ACCESS_KEY (or a .env
file). APPSHEET_RUNTIME_MODE=mock with APPSHEET_MOCK_SEED=<seed.yaml> runs
against an in-memory copy instead.

Examples:
  appsheet find Tasks -column Status -value Open
  appsheet find Tasks -selector "Filter(Tasks, [Priority] >= '3')"
  appsheet add Tasks rows.yaml
  appsheet edit Tasks row.yaml -key ID -diff
  appsheet delete Tasks -column ID -value 42
  appsheet delete "Invoice Lines" -keys InvoiceID=INV-1,Line=2
  appsheet selector Tasks Status = "In Progress"
  appsheet key INV-1 2
  appsheet sandbox -seed seed.yaml -access-key dev`

// app carries state shared by every subcommand.
type app struct {
	ctx context.Context
}

// RootCommand returns the appsheet command tree.
func RootCommand(ctx context.Context) *cli.Command {
	a := &app{ctx: ctx}
	return cli.NewCommand("appsheet").
		WithSynopsis("appsheet <command> [opts] [args]").
		WithDescription(usageText).
		WithSubs(
			FindCommand(a),
			AddCommand(a),
			EditCommand(a),
			DeleteCommand(a),
			SelectorCommand(),
			KeyCommand(),
			SandboxCommand(a),
		)
}
