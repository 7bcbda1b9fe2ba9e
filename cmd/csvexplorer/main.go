// Command csvexplorer is the command-line front end of the CSV explorer.
package main

import (
	"os"

	"github.com/JonMunkholm/csvexplorer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
