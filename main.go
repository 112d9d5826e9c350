package main

import "heatsink/cli"

func main() {
	cli.Execute()
}
