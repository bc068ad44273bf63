package main

import "github.com/chazu/horologe/internal/cli"

func main() {
	cli.Execute()
}
