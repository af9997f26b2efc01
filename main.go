package main

import "jshunter/cmd"

func main() {
	cmd.Execute()
}
