package main

import (
	"os"

	"jobtail/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
