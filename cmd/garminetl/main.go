package main

import "github.com/emiliopalmerini/garminetl/internal/cli"

func main() {
	cli.Execute()
}
