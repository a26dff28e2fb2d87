package commands

import (
	"os"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/forensix/aff4/config"
	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/logger"
	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
)

var viewTurtle bool

// ViewCmd shows AFF4 metadata from one or more volumes.
var ViewCmd = &cobra.Command{
	Use:   "view VOLUME [VOLUMES...]",
	Short: "Show AFF4 metadata from one or more volumes",
	Long: `view — Show AFF4 metadata.

Loads the metadata of each named volume cumulatively into one resolver
and prints the resulting triple set, either as a table or as Turtle.

Examples:
  aff4 view evidence.aff4
  aff4 view --turtle evidence.aff4 > metadata.turtle
  aff4 view part1.aff4 part2.aff4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runViewCommand,
}

func init() {
	ViewCmd.Flags().BoolVar(&viewTurtle, "turtle", false, "Dump metadata as Turtle instead of a table")
}

func runViewCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	resolver, cleanup, err := openResolver(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Logger.Warnw("resolver close reported errors", "error", err)
		}
	}()

	if err := preloadVolumes(resolver, args); err != nil {
		return err
	}

	if viewTurtle {
		return resolver.DumpToTurtle(os.Stdout)
	}

	snap, err := resolver.Snapshot()
	if err != nil {
		return err
	}

	table := pterm.TableData{{"Subject", "Attribute", "Value"}}
	for _, subject := range sortedSubjects(snap) {
		for _, attribute := range sortedAttributes(snap[subject]) {
			table = append(table, []string{
				subject.String(),
				attribute.String(),
				snap[subject][attribute].SerializeToString(),
			})
		}
	}

	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func sortedSubjects(snap store.TripleSet) []rdf.URN {
	out := make([]rdf.URN, 0, len(snap))
	for urn := range snap {
		out = append(out, urn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedAttributes(attrs map[rdf.URN]rdf.Value) []rdf.URN {
	out := make([]rdf.URN, 0, len(attrs))
	for urn := range attrs {
		out = append(out, urn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
