package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/scott-cotton/cli"
)

func main() {
	// glog registers its flags on the standard flag set; route it to stderr
	// and let APPSHEET_LOG_V raise verbosity.
	_ = flag.Set("logtostderr", "true")
	if v := os.Getenv("APPSHEET_LOG_V"); v != "" {
		_ = flag.Set("v", v)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cli.MainContext(ctx, RootCommand(ctx))
}
