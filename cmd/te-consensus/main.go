package main

import "github.com/grailbio/teconsensus/cmd/te-consensus/cmd"

func main() {
	cmd.Run()
}
