package main

import (
	"fmt"
	"os"

	"github.com/reoring/refbundle/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "refbundle:", err)
		os.Exit(1)
	}
}
