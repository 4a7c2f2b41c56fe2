package main

import "github.com/quantifyearth/life/internal/commands/aoh"

func main() {
	aoh.Main()
}
