// Command fincratectl is the operator tool of the fincrate backend: it applies
// migrations, registers users, issues their API tokens and prints synthetic
// price series.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&userCmd{}, "auth")
	commander.Register(&tokenCmd{}, "auth")
	commander.Register(&secretCmd{}, "auth")
	commander.Register(&syntheticCmd{}, "market")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
