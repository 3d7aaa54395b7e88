// Command fpctl administers a Faux Pas evaluation database: migrations,
// question-bank import, evaluation runs and judge checks.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
