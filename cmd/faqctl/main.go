package main

import "github.com/kailas-cloud/faqdex/internal/cli"

func main() {
	cli.Execute()
}
