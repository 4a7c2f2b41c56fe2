package main

import "github.com/quantifyearth/life/internal/commands/scenario"

func main() {
	scenario.Main()
}
