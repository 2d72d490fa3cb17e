package main

import (
	"github.com/hwbot/partswatch/internal/cli"
)

func main() {
	cli.Execute()
}
