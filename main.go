package main

import "github.com/mkorpi/alexandria/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
