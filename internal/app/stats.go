package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"lingua.desk/lingod/internal/cli"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "stats does not accept positional arguments")
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	ctx, cancel, eng, err := connectEngine(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer eng.Close()

	records, err := eng.pool.CountRecords(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to count cache records: %v\n", err)
		return 1
	}

	engines := eng.manager.Engines()

	if outputFormat == outputFormatJSON {
		if err := printJSON(map[string]any{
			"engines":       engines,
			"cache_records": records,
			"cache_ttl":     eng.store.TTL().String(),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	engineRows := make([][]string, 0, len(engines))
	for _, info := range engines {
		engineRows = append(engineRows, []string{
			info.Name,
			fmt.Sprintf("%t", info.Available),
			fmt.Sprintf("%t", info.Default),
			info.Model,
		})
	}
	if err := writeTable([]string{"engine", "available", "default", "model"}, engineRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render engine table: %v\n", err)
		return 1
	}

	fmt.Println()
	cacheRows := [][]string{
		{"cache_records", fmt.Sprintf("%d", records)},
		{"cache_ttl", eng.store.TTL().String()},
	}
	if err := writeTable([]string{"metric", "value"}, cacheRows); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render cache table: %v\n", err)
		return 1
	}

	return 0
}
