package main

import "github.com/felixgeelhaar/atheneum/cmd/atheneum/cli"

func main() {
	cli.Execute()
}
