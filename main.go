package main

import "github.com/douhashi/labelbulk/cmd"

func main() {
	cmd.Execute()
}
