package main

import "github.com/quantifyearth/life/internal/commands/h3agg"

func main() {
	h3agg.Main()
}
