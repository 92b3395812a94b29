package main

import "Orbit/client/orbit-cli/cmd"

func main() {
	cmd.Execute()
}
