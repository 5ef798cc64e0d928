package main

import "github.com/gaurav-prasanna/layoutpipe/cmd"

func main() {
	cmd.Execute()
}
