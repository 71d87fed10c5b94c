package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/generate"
	"github.com/signalnine/dockscore/internal/report"
	"github.com/signalnine/dockscore/internal/result"
	"github.com/signalnine/dockscore/internal/runner"
	"github.com/signalnine/dockscore/internal/tools"
	"github.com/spf13/cobra"
)

var (
	flagTrial        int
	flagParallel     int
	flagSkipGenerate bool
	flagVariant      string
	flagCleanup      bool
	flagMaxEnergy    float64
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and score the poses of one trial",
		RunE:  runTrial,
	}
	cmd.Flags().IntVar(&flagTrial, "trial", 0, "trial number (reads <data>/trials/trial_N.csv)")
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "max poses scored concurrently")
	cmd.Flags().BoolVar(&flagSkipGenerate, "skip-generate", false, "score existing poses without running DiffDock")
	cmd.Flags().StringVar(&flagVariant, "variant", config.VariantRank1, "pose file to score (rank1, confidence)")
	cmd.Flags().BoolVar(&flagCleanup, "cleanup", false, "remove each complex directory after staging its pose")
	cmd.Flags().Float64Var(&flagMaxEnergy, "max-energy", 0, "fail poses whose force-field energy exceeds this (0 disables)")
	cmd.MarkFlagRequired("trial")
	return cmd
}

func runTrial(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, cmd.Flags().Changed); err != nil {
		return err
	}
	if flagTrial < 1 {
		return fmt.Errorf("--trial must be positive, got %d", flagTrial)
	}

	runDir, err := result.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("Run directory: %s\n", runDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	toolRunner := tools.Exec{}
	table, err := runner.RunTrial(ctx, &runner.TrialOpts{
		Config:       cfg,
		Trial:        flagTrial,
		RunDir:       runDir,
		Runner:       toolRunner,
		Generator:    generate.New(cfg, toolRunner),
		SkipGenerate: flagSkipGenerate,
	})
	if err != nil {
		return err
	}
	scored, failed := table.Counts()
	fmt.Printf("Trial %d: %d scored, %d failed\n", flagTrial, scored, failed)

	fmt.Println("\n--- Scores ---")
	if err := report.Generate(runDir, "poses", os.Stdout); err != nil {
		return err
	}
	fmt.Println("\n--- Summary ---")
	return report.Generate(runDir, "table", os.Stdout)
}

// applyOverrides copies explicitly set run flags over the loaded config.
func applyOverrides(cfg *config.Config, changed func(string) bool) error {
	if changed("parallel") {
		if flagParallel < 1 {
			return fmt.Errorf("--parallel must be at least 1, got %d", flagParallel)
		}
		cfg.Parallel = flagParallel
	}
	if changed("variant") {
		switch flagVariant {
		case config.VariantRank1, config.VariantConfidence:
			cfg.Pose.Variant = flagVariant
		default:
			return fmt.Errorf("--variant %q: must be %q or %q", flagVariant, config.VariantRank1, config.VariantConfidence)
		}
	}
	if changed("cleanup") {
		cfg.Pose.Cleanup = flagCleanup
	}
	if changed("max-energy") {
		if flagMaxEnergy < 0 {
			return fmt.Errorf("--max-energy must not be negative")
		}
		cfg.Quality.MaxEnergy = flagMaxEnergy
	}
	return nil
}
