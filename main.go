package main

import "pedtrack/cmd"

func main() {
	cmd.Execute()
}
