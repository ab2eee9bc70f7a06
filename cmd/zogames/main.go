package main

import (
	"github.com/enzo-projet/zogames/internal/cli"
)

func main() {
	cli.Execute()
}
