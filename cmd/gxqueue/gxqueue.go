package main

import "GhxFrontEnd/internal/gxqueue"

func main() {
	gxqueue.ParseCmdArgs()
}
