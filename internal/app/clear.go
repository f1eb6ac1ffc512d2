package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lingua.desk/lingod/internal/cli"
)

func runClear(args []string) int {
	if len(args) == 0 {
		printClearUsage()
		return 2
	}

	target := strings.ToLower(strings.TrimSpace(args[0]))
	switch target {
	case "cache", "user-data":
	default:
		fmt.Fprintf(os.Stderr, "Unknown clear target: %s\n\n", args[0])
		printClearUsage()
		return 2
	}

	fs := flag.NewFlagSet("clear "+target, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	account := fs.String("account", "", "Limit cache clearing to one account")
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "clear does not accept positional arguments")
		printClearUsage()
		return 2
	}

	accountID := strings.TrimSpace(*account)
	if target == "user-data" && accountID != "" {
		fmt.Fprintln(os.Stderr, "--account only applies to clear cache")
		return 2
	}

	if !*force {
		prompt := fmt.Sprintf("Proceed with clear %s?", target)
		if accountID != "" {
			prompt = fmt.Sprintf("Proceed with clear %s for account %q?", target, accountID)
		}
		ok, err := confirmDangerousAction(prompt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read confirmation: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Cancelled")
			return 1
		}
	}

	ctx, cancel, eng, err := connectEngine(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer eng.Close()

	switch {
	case target == "cache" && accountID != "":
		if err := eng.store.ClearAccount(ctx, accountID); err != nil {
			fmt.Fprintf(os.Stderr, "Clear cache failed: %v\n", err)
			return 1
		}
		fmt.Printf("Cleared cached translations for account %s\n", accountID)
	case target == "cache":
		if err := eng.store.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear cache failed: %v\n", err)
			return 1
		}
		fmt.Println("Cleared all cached translations")
	default:
		if err := eng.store.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear user data failed: %v\n", err)
			return 1
		}
		if err := eng.pool.DeleteAllAccountConfigs(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Clear user data failed: %v\n", err)
			return 1
		}
		fmt.Println("Cleared cached translations and account configuration")
	}

	return 0
}

func printClearUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lingod clear cache [--account id] [--force] [--env .env] [--timeout 30s]")
	fmt.Fprintln(os.Stderr, "  lingod clear user-data [--force] [--env .env] [--timeout 30s]")
}
