package main

import "github.com/KaramelBytes/tally-cli/cmd"

func main() {
	cmd.Execute()
}
