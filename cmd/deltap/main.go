package main

import "github.com/quantifyearth/life/internal/commands/deltap"

func main() {
	deltap.Main()
}
