package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var runYears int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a number of years and archive them",
	Long:  `Simulate the configured number of years as fast as possible, archiving every year to the chronicle database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		years := cfg.Sim.Years
		if cmd.Flags().Changed("years") {
			years = runYears
		}

		db, err := openDB(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		sim, err := newSimulation(cfg)
		if err != nil {
			return err
		}
		sim.OnYearEnd = db.Archive
		if err := db.SaveYear(sim.Stats); err != nil {
			return err
		}

		if err := yearly(sim).RunYears(years); err != nil {
			return fmt.Errorf("simulate: %w", err)
		}

		snap := sim.Community.Snapshot()
		if err := db.SaveCensus(snap); err != nil {
			return fmt.Errorf("save census: %w", err)
		}

		slog.Info("run complete",
			"years", years,
			"population", humanize.Comma(int64(len(snap.Persons))),
			"tribes", len(snap.Tribes),
			"families", snap.Families,
			"bonds", humanize.Comma(int64(len(snap.Edges))),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "After %s years: %s souls, %d tribes, %d families.\n",
			humanize.Comma(int64(years)), humanize.Comma(int64(len(snap.Persons))),
			len(snap.Tribes), snap.Families)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runYears, "years", 0, "years to simulate (default from config)")
}
