package main

import (
	"os"

	"github.com/charleschow/polyclob/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
