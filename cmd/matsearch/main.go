package main

import "matsearch/internal/cli"

func main() {
	cli.Execute()
}
