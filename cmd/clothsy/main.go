package main

import "clothsy/internal/cmd"

func main() {
	cmd.Execute()
}
