package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/gnmoseke/peregrine/internal/cmd"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(cmd.RunCmd(), "")
	subcommands.Register(cmd.CountCmd(), "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
