package main

import (
	"os"

	"lingua.desk/lingod/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
