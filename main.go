package main

import "github.com/xvierd/tally/cmd"

func main() {
	cmd.Execute()
}
