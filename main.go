package main

import "github.com/pders01/blueprint/cmd"

func main() {
	cmd.Execute()
}
