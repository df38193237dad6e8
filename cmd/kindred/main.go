// Command kindred simulates a medieval population's families and tribes.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/kindred/internal/climate"
	"github.com/talgya/kindred/internal/community"
	"github.com/talgya/kindred/internal/config"
	"github.com/talgya/kindred/internal/engine"
	"github.com/talgya/kindred/internal/persistence"
	"github.com/talgya/kindred/internal/tribe"
)

var (
	cfgFile string
	v       = config.NewViper()
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kindred",
	Short: "Kindred population simulator",
	Long: `Kindred grows a population year by year: persons marry and have children,
charismatic leaders gather tribes, leaders die and are succeeded.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(cfg.Log.NewLogger())
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.Int64("seed", config.Default().Seed, "random seed")
	flags.Int("population", config.Default().Population.Initial, "initial population")
	flags.String("db", config.Default().DB.Path, "chronicle database path")
	flags.String("log-level", config.Default().Log.Level, "log level (debug, info, warn, error)")
	flags.String("log-format", config.Default().Log.Format, "log format (text, json)")

	bind(v, "seed", "seed")
	bind(v, "population.initial", "population")
	bind(v, "db.path", "db")
	bind(v, "log.level", "log-level")
	bind(v, "log.format", "log-format")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

func bind(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSimulation builds and seeds a simulation from cfg.
func newSimulation(cfg config.Config) (*engine.Simulation, error) {
	opts := community.DefaultOptions(cfg.Seed)
	opts.ParentsAge = cfg.Family.ParentsAge
	opts.Tribe = tribe.Policy{
		MinSize:         cfg.Tribe.MinSize,
		LeaderMinAge:    cfg.Tribe.LeaderMinAge,
		LeaderCharisma:  cfg.Tribe.LeaderCharisma,
		ExcludeFamilies: cfg.Tribe.ExcludeFamilies,
	}

	rules := engine.DefaultRules()
	rules.LeaderShare = cfg.Population.LeaderShare
	rules.BirthChance = cfg.Sim.BirthChance

	sim := engine.NewSimulation(
		community.New(opts),
		climate.New(climate.DefaultConfig(cfg.Seed)),
		rules,
	)
	if err := sim.Seed(cfg.Population.Initial); err != nil {
		return nil, err
	}
	return sim, nil
}

// openDB opens the chronicle, creating its directory.
func openDB(path string) (*persistence.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", path)
	return db, nil
}

// yearly wires a simulation into an engine.
func yearly(sim *engine.Simulation) *engine.Engine {
	eng := engine.NewEngine()
	eng.OnYear = func(int) error { return sim.TickYear() }
	return eng
}
