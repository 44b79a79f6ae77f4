package main

import "github.com/hhlyyng/animesub/cmd"

// execute is a seam for tests.
var execute = cmd.Execute

func main() {
	execute()
}
