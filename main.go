package main

import "github.com/kiesman99/omafpack/cmd"

func main() {
	cmd.Execute()
}
