package main

import "github.com/mcoot/sortinghat/internal/cli"

func main() {
	cli.Execute()
}
