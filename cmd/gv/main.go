package main

import (
	"fmt"
	"os"

	"gitvault/cmd/gv/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gv:", err)
		os.Exit(1)
	}
}
