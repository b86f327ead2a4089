package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/namo507/stancer/internal/cli"
)

func main() {
	// Optional .env for the suggestion API key; absence is not an error
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
