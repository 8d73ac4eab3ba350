package main

import "github.com/vyges/mlowtb/internal/cli"

func main() {
	cli.Execute()
}
