package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/stampede/internal/config"
	"github.com/wesleyorama2/stampede/internal/logging"
	"github.com/wesleyorama2/stampede/internal/metrics"
	"github.com/wesleyorama2/stampede/internal/output"
	"github.com/wesleyorama2/stampede/internal/runner"
	"github.com/wesleyorama2/stampede/internal/session"
	"github.com/wesleyorama2/stampede/internal/vuser"
)

var (
	runConfigFile string
	runUsers      int
	runTarget     string
	runDuration   time.Duration
	runVerbosity  int
	runNoColor    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in browsing profile against a target",
	Long: `Run simulates a population of virtual users executing the built-in
browsing profile. A YAML config file can set the population size, run
duration, pacing, and per-category schedule overrides; flags override the
file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return err
		}
		return executeRun(cfg)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runConfigFile, "config", "c", "", "Path to run configuration file")
	runCmd.Flags().IntVarP(&runUsers, "users", "u", 0, "Number of virtual users (overrides config)")
	runCmd.Flags().StringVarP(&runTarget, "target", "t", "", "Base URL of the system under test (overrides config)")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 0, "Run duration (overrides config)")
	runCmd.Flags().CountVarP(&runVerbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "Disable colored output")
}

func loadRunConfig() (*config.RunConfig, error) {
	var cfg *config.RunConfig
	if runConfigFile != "" {
		loaded, err := config.Load(runConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &config.RunConfig{Name: "stampede", Users: 1}
	}

	if runUsers > 0 {
		cfg.Users = runUsers
	}
	if runTarget != "" {
		cfg.Target = runTarget
	}
	if runDuration > 0 {
		cfg.Duration = runDuration.String()
	}
	return cfg, nil
}

func executeRun(cfg *config.RunConfig) error {
	log := logging.New(logging.Options{Verbosity: runVerbosity})

	profile, err := demoProfile(cfg)
	if err != nil {
		return fmt.Errorf("building profile: %w", err)
	}

	duration, err := cfg.GetDuration()
	if err != nil {
		return err
	}
	spawn, err := cfg.GetSpawnInterval()
	if err != nil {
		return err
	}
	pacer, err := buildPacer(cfg.Pacing)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	registry := vuser.NewRegistry()

	users := make([]*vuser.User, 0, cfg.Users)
	for i := 0; i < cfg.Users; i++ {
		u := vuser.New(registry, profile, collector, log, vuser.Hooks{})
		u.SetLogicalID(int64(i + 1))
		if cfg.Target != "" {
			u.SetSession(session.NewHTTP(cfg.Target, http.DefaultClient))
		}
		users = append(users, u)
	}

	r := runner.New(users, runner.Options{
		Pacer:         pacer,
		SpawnInterval: spawn,
		Duration:      duration,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			log.Info().Msg("interrupt received, stopping")
			r.Stop()
		case <-ctx.Done():
		}
	}()

	runErr := r.Run(ctx)

	console := output.NewConsole(os.Stdout, runNoColor)
	console.PrintSummary(cfg.Name, collector.Snapshot())

	return runErr
}

// buildPacer translates the pacing config into a runner pacer. Nil config
// means no inter-task wait.
func buildPacer(p *config.PacingConfig) (runner.Pacer, error) {
	if p == nil || p.Type == "" || p.Type == "none" {
		return nil, nil
	}
	switch p.Type {
	case "constant":
		d, err := time.ParseDuration(p.Duration)
		if err != nil {
			return nil, fmt.Errorf("pacing duration: %w", err)
		}
		return runner.ConstantPacer{D: d}, nil
	case "random":
		min, err := time.ParseDuration(p.Min)
		if err != nil {
			return nil, fmt.Errorf("pacing min: %w", err)
		}
		max, err := time.ParseDuration(p.Max)
		if err != nil {
			return nil, fmt.Errorf("pacing max: %w", err)
		}
		return runner.NewUniformPacer(min, max, nil), nil
	case "throughput":
		return runner.NewThroughputPacer(p.Rate), nil
	default:
		return nil, fmt.Errorf("unknown pacing type: %q", p.Type)
	}
}
