package main

import "github.com/notargets/parfem/cmd"

func main() {
	cmd.Execute()
}
