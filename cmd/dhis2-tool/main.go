package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"dhis2-tool/internal/app"
	"dhis2-tool/internal/logging"
)

// main is the entry point of the application.
// It initializes the runner and executes it with command-line arguments.
func main() {
	runner := app.NewRunner()

	err := runner.Run(os.Args[1:]) // Pass args excluding the program name
	if err != nil {
		log.Printf("[ERROR] %v", err)
		if errors.Is(err, app.ErrUsage) || errors.Is(err, app.ErrMissingArgs) {
			fmt.Fprintln(os.Stderr, "")
			runner.Usage(os.Stderr)
		}
		// Ensure logging level is at least Error before exiting
		if logging.GetLevel() < logging.Error {
			logging.SetLevel(logging.Error)
		}
		os.Exit(1)
	}

	logging.Logf(logging.Info, "Completed successfully.")
}
