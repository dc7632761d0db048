// Command budgetctl administers a budget SQLite database: schema
// migrations, users, cycles and exports.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
