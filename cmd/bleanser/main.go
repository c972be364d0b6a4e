// Command bleanser prunes redundant snapshots from a chronologically
// ordered series of backups of the same logical dataset, keeping only
// the snapshots that witness a real change.
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
