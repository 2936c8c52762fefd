package main

import "github.com/circuitgrid/tasklens/cmd"

func main() {
	cmd.Execute()
}
