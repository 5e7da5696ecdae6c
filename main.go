package main

import "guidehub/cmd"

func main() {
	cmd.Execute()
}
