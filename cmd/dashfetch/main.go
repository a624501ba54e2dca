// Command dashfetch downloads and remuxes DASH media presentations over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/dashfetch/dashfetch/cmd/dashfetch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
