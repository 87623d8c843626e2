package main

import "scour/internal/cli"

func main() {
	cli.Execute()
}
