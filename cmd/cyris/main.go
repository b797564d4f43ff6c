package main

import "github.com/cyris-project/cyris/cmd/cyris/cmd"

func main() {
	cmd.Execute()
}
