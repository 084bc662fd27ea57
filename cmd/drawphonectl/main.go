package main

import "github.com/mcoot/drawphone/internal/cli"

func main() {
	cli.Execute()
}
