package main

import "teamchat/cmd/cli/command"

func main() {
	command.Execute()
}
