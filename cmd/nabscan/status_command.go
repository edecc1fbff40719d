package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"nabscan/internal/config"
	"nabscan/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index row counts and the segment backlog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				renderStatus(cmd.OutOrStdout(), cfg, st.Path(), stats)
				return nil
			})
		},
	}
}

func renderStatus(out io.Writer, cfg *config.Config, dbPath string, stats store.Stats) {
	p := message.NewPrinter(language.English)
	count := func(v int64) string { return p.Sprintf("%d", v) }

	fmt.Fprintf(out, "Database: %s\n", dbPath)

	rows := [][]string{
		{"Groups", count(stats.Groups)},
		{"Active groups", count(stats.ActiveGroups)},
		{"Segments", count(stats.Segments)},
		{"Parts", count(stats.Parts)},
		{"Binaries", count(stats.Binaries)},
		{"Missed segments", count(stats.Misses)},
		{"Groups with misses", count(stats.MissGroups)},
		{"Releases", count(stats.Releases)},
	}
	for _, kind := range store.ArtifactKinds {
		rows = append(rows, []string{fmt.Sprintf("Release %ss", kind), count(stats.Artifacts[kind])})
	}
	printTable(out, []string{"Table", "Rows"}, rows, []columnAlignment{alignLeft, alignRight})

	threshold := cfg.Scan.EarlyProcessThreshold
	backlog := "within threshold"
	if stats.Segments > threshold {
		backlog = "over threshold, next cycle processes before scanning"
	}
	fmt.Fprintf(out, "Segment backlog: %s of %s (%s)\n", count(stats.Segments), count(threshold), backlog)
}
