package main

import (
	"os"

	"genaibridge/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], cli.Env{}))
}
