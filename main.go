package main

import "github.com/klokku/spendwise/cmd"

func main() {
	cmd.Execute()
}
