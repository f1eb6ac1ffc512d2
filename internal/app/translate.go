package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lingua.desk/lingod/internal/cli"
	"lingua.desk/lingod/internal/translation"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	target := fs.String("to", "", "Target language (ISO 639-1, for example: en, de)")
	source := fs.String("from", "", "Source language; empty means detect")
	engineName := fs.String("engine", "", "Translation engine name (for example: google, openai)")
	style := fs.String("style", "", "Translation style for LLM engines (for example: formal)")
	account := fs.String("account", "", "Account whose defaults and cache scope apply")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "translate requires one text argument")
		printTranslateUsage()
		return 2
	}

	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid format: %v\n", err)
		return 2
	}

	text := fs.Arg(0)
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(os.Stderr, "translate argument must not be empty")
		return 2
	}

	ctx, cancel, eng, err := connectEngine(*timeout, envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cancel()
	defer eng.Close()

	result, err := eng.manager.Translate(ctx, translation.Request{
		Text:       text,
		SourceLang: *source,
		TargetLang: *target,
		Engine:     *engineName,
		Style:      *style,
		AccountID:  strings.TrimSpace(*account),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Println(result.TranslatedText)
	fmt.Fprintf(os.Stderr, "engine=%s detected=%s cached=%t\n",
		result.EngineUsed, result.DetectedLang, result.Cached)
	return 0
}

func printTranslateUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lingod translate <text> --to <lang> [--from auto] [--engine google] [--style formal] [--account id] [--format table|json]")
}
