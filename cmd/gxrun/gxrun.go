package main

import "GhxFrontEnd/internal/gxrun"

func main() {
	gxrun.ParseCmdArgs()
}
