package main

import "pos-insights/cmd"

func main() {
	cmd.Execute()
}
