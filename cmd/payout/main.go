package main

import (
	"os"

	"github.com/rustyeddy/payout/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
