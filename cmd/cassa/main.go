package main

import (
	"os"

	"cassa/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
