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

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "detect requires one text argument")
		return 2
	}

	text := fs.Arg(0)
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(os.Stderr, "detect argument must not be empty")
		return 2
	}

	ctx, cancel, eng, err := connectEngine(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer eng.Close()

	lang, err := eng.manager.DetectLanguage(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detect failed: %v\n", err)
		return 1
	}

	fmt.Println(lang)
	return 0
}
