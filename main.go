package main

import "github.com/agentic-research/kgstore/cmd"

func main() {
	cmd.Execute()
}
