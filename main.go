package main

import "github.com/putzplan/putz/cmd"

func main() {
	cmd.Execute()
}
