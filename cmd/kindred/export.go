package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/kindred/internal/census"
)

var (
	exportYears  int
	exportFormat string
	exportOut    string
	exportEvents int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Simulate and dump a census as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		years := cfg.Sim.Years
		if cmd.Flags().Changed("years") {
			years = exportYears
		}

		sim, err := newSimulation(cfg)
		if err != nil {
			return err
		}
		if err := yearly(sim).RunYears(years); err != nil {
			return fmt.Errorf("simulate: %w", err)
		}
		doc := census.Build(sim, exportEvents)

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOut, err)
			}
			defer f.Close()
			w = f
		}
		if err := census.Write(w, doc, exportFormat); err != nil {
			return err
		}
		if exportOut != "" && exportOut != "-" {
			slog.Info("census exported", "path", exportOut, "format", exportFormat, "persons", len(doc.Persons))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportYears, "years", 0, "years to simulate (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", census.FormatYAML, "output format (yaml, json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().IntVar(&exportEvents, "events", 100, "recent events to include")
}
