package main

import "github.com/KaramelBytes/redactly-cli/cmd"

func main() {
	cmd.Execute()
}
