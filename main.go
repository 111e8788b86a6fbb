// ABOUTME: Entry point for trainer-admin CLI
// ABOUTME: Administers training platform users from scripts or an interactive dashboard

package main

import (
	"fmt"
	"os"

	"github.com/markalston/trainer-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
