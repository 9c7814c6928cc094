package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/fincrate/fincrate-backend/internal/database"
)

type migrateCmd struct {
	dbPath string
	status bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `fincratectl migrate [-db <path>] [-status]

  Applies every pending schema migration to the configured database.
  With -status, only reports the current schema version.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "Database file. Defaults to DB_PATH.")
	f.BoolVar(&c.status, "status", false, "Report the schema version without migrating.")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, db, err := openDatabase(ctx, c.dbPath, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if c.status {
		version, pending, err := database.SchemaVersion(ctx, db)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s: schema version %d, pending migrations: %t\n", cfg.Database.Path, version, pending)
		return subcommands.ExitSuccess
	}

	version, err := database.Migrate(ctx, db)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: schema version %d\n", cfg.Database.Path, version)
	return subcommands.ExitSuccess
}
