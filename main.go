package main

import (
	"os"

	"github.com/ziadkadry99/mcporch/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
