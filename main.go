package main

import "mememeow/cli"

func main() {
	cli.Execute()
}
