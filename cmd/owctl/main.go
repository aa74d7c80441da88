package main

import "github.com/mcoot/openworld/internal/cli"

func main() {
	cli.Execute()
}
