package main

import (
	"os"

	"github.com/willfong/atmsim/internal/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
