package main

import (
	"trustlend-sim/internal/cli"
)

func main() {
	cli.Execute()
}
