package main

import (
	"fmt"
	"os"

	"liyantis-backend/internal/cli"
	"liyantis-backend/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Fee constants come from the same env as the API so both agree on the numbers.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app := &cli.App{Options: cfg.FinanceOptions()}
	return cli.NewRootCmd(app).Execute()
}
