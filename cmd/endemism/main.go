package main

import "github.com/quantifyearth/life/internal/commands/endemism"

func main() {
	endemism.Main()
}
