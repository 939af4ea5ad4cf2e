package main

import "lemmy-automod/cmd"

func main() {
	cmd.Execute()
}
