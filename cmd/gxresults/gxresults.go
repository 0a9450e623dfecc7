package main

import "GhxFrontEnd/internal/gxresults"

func main() {
	gxresults.ParseCmdArgs()
}
