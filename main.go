package main

import "github.com/endorses/datmatch/cmd"

func main() {
	cmd.Execute()
}
