package main

import "github.com/quantifyearth/life/internal/commands/richness"

func main() {
	richness.Main()
}
