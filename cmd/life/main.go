// Command life is the composite binary bundling every subcommand behind
// one `life <verb>` entrypoint (§6's CLI surface), for deployments that
// prefer a single artifact over one binary per verb.
package main

import (
	"github.com/quantifyearth/life/internal/cli"
	"github.com/quantifyearth/life/internal/commands/aoh"
	"github.com/quantifyearth/life/internal/commands/deltap"
	"github.com/quantifyearth/life/internal/commands/endemism"
	"github.com/quantifyearth/life/internal/commands/h3agg"
	"github.com/quantifyearth/life/internal/commands/richness"
	"github.com/quantifyearth/life/internal/commands/scenario"
)

func main() {
	cli.Root.AddCommand(
		aoh.Command(),
		deltap.Command(),
		richness.Command(),
		endemism.Command(),
		scenario.Command(),
		h3agg.Command(),
	)
	cli.Execute()
}
