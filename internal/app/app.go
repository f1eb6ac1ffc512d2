package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "serve":
		return runServe(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "detect":
		return runDetect(args[1:])
	case "stats":
		return runStats(args[1:])
	case "cleanup":
		return runCleanup(args[1:])
	case "clear":
		return runClear(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "lingod CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  lingod <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health     Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  serve      Start the translation HTTP server")
	fmt.Fprintln(os.Stderr, "  translate  Translate one text from the command line")
	fmt.Fprintln(os.Stderr, "  detect     Detect the language of a text")
	fmt.Fprintln(os.Stderr, "  stats      Show engine and cache statistics")
	fmt.Fprintln(os.Stderr, "  cleanup    Remove expired cache records")
	fmt.Fprintln(os.Stderr, "  clear      Delete cached translations or stored user data")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"lingod <command> -h\" for command-specific flags.")
}
