// Package cli wires the shared cobra root command, zerolog logging init,
// and viper config binding used by every `life` subcommand, plus the
// hidden stage-worker dispatch (§4.6) that must short-circuit before
// cobra's own flag parsing ever runs.
package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantifyearth/life/stage"
)

var (
	cfgFile  string
	logLevel string
)

// Root is the shared root command that cmd/life wires the subcommands
// onto; the single-purpose cmd/<name> binaries run their command on its
// own.
var Root = &cobra.Command{
	Use:   "life",
	Short: "Biodiversity persistence raster-algebra engine",
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	Root.PersistentFlags().StringVar(&cfgFile, "config", "", "experiment config JSON (see config.Load)")
	Root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("config", Root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log-level", Root.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("LIFE")
	viper.AutomaticEnv()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func initLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log-level")))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// MaybeRunStageWorker inspects os.Args for stage.WorkerFlag/stage.StageFlag
// and, if present, dispatches straight to stage.RunWorker and calls
// os.Exit — bypassing cobra entirely, since a re-exec'd worker process
// speaks newline-JSON over stdio, not a normal CLI invocation. Execute
// calls this before Root.Execute(); the richness and endemism commands'
// own entry points call it too.
func MaybeRunStageWorker() {
	var name string
	var stageNum int
	for _, arg := range os.Args[1:] {
		if v, ok := strings.CutPrefix(arg, stage.WorkerFlag+"="); ok {
			name = v
		}
		if v, ok := strings.CutPrefix(arg, stage.StageFlag+"="); ok {
			n, err := strconv.Atoi(v)
			if err == nil {
				stageNum = n
			}
		}
	}
	if name == "" || stageNum == 0 {
		return
	}

	if err := stage.RunWorker(name, stageNum, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Str("stage", name).Int("stage_num", stageNum).Msg("stage worker failed")
		os.Exit(1)
	}
	os.Exit(0)
}

// Execute runs Root, intercepting the hidden stage-worker dispatch first.
func Execute() {
	MaybeRunStageWorker()
	if err := Root.Execute(); err != nil {
		log.Error().Err(err).Msg("life: command failed")
		os.Exit(1)
	}
}
