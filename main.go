package main

import "malpha/cmd"

func main() {
	cmd.Execute()
}
