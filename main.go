package main

import (
	_ "time/tzdata"

	"stddevalert/internal/cli"
)

func main() {
	cli.Execute()
}
