package main

import "GhxFrontEnd/internal/gxcancel"

func main() {
	gxcancel.ParseCmdArgs()
}
