package main

import "subrecon/internal/cmd"

func main() {
	cmd.Execute()
}
