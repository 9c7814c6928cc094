package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/fincrate/fincrate-backend/internal/marketdata"
)

type syntheticCmd struct {
	size  string
	today string
}

func (*syntheticCmd) Name() string { return "synthetic" }
func (*syntheticCmd) Synopsis() string {
	return "print the synthetic history served when upstream sources are rate limited"
}
func (*syntheticCmd) Usage() string {
	return `fincratectl synthetic [-outputsize compact|full] [-today YYYY-MM-DD] <symbol>

  Prints the deterministic daily series generated for a symbol as JSON.
`
}

func (c *syntheticCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.size, "outputsize", "compact", "History size: compact (100 days) or full (365 days).")
	f.StringVar(&c.today, "today", "", "Last day of the series. Defaults to today (UTC).")
}

func (c *syntheticCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	size, err := marketdata.ParseOutputSize(c.size)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	today := time.Now().UTC()
	if c.today != "" {
		if today, err = time.Parse("2006-01-02", c.today); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -today: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	symbol := strings.ToUpper(strings.TrimSpace(f.Arg(0)))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(marketdata.GenerateSyntheticHistory(symbol, size, today)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
