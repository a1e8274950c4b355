// Command potable runs the water-potability analysis pipeline: descriptive
// statistics, preprocessing and the four-family model comparison.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
