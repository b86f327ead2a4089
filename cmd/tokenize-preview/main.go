// Test program to inspect text normalization by hand.
// It prints the token sequence for each argument, with and without
// lemmatization, so vocabulary surprises can be traced to one stage.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/namo507/stancer/internal/text"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{
			"I absolutely love the new iOS update!!!",
			"Android phones are getting worse & worse in 2024...",
			"Both are fine, honestly.",
		}
	}

	plain := text.NewNormalizer(text.Options{})
	lemmatized := text.NewNormalizer(text.Options{Lemmatize: true})

	for _, input := range args {
		fmt.Printf("Input: %q\n", input)
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("  tokens:     %v\n", plain.Tokens(input))
		fmt.Printf("  lemmatized: %v\n", lemmatized.Tokens(input))
		fmt.Println()
	}
}
