package main

import "github.com/naka-gawa/github-busfactor/cmd"

func main() {
	cmd.Execute()
}
