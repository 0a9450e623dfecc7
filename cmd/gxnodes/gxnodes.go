package main

import "GhxFrontEnd/internal/gxnodes"

func main() {
	gxnodes.ParseCmdArgs()
}
