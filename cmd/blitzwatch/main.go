package main

import "blitzwatch/cmd/blitzwatch/commands"

func main() {
	commands.Execute()
}
