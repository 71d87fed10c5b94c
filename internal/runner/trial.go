package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/convert"
	"github.com/signalnine/dockscore/internal/energy"
	"github.com/signalnine/dockscore/internal/pose"
	"github.com/signalnine/dockscore/internal/result"
	"github.com/signalnine/dockscore/internal/scoring"
	"github.com/signalnine/dockscore/internal/structure"
	"github.com/signalnine/dockscore/internal/tools"
)

// Generator produces the pose directories of a trial.
type Generator interface {
	Run(ctx context.Context, trial int) error
}

type TrialOpts struct {
	Config       *config.Config
	Trial        int
	RunDir       string
	Runner       tools.Runner
	Generator    Generator
	SkipGenerate bool
}

// pipeline holds the per-pose tools of one trial.
type pipeline struct {
	cfg       *config.Config
	genDir    string
	posesDir  string
	receptor  string
	converter *convert.Converter
	filter    *energy.Filter
	scorer    *scoring.Scorer
}

// RunTrial generates poses for a trial, scores each of them against the
// receptor and persists the score table. A failing pose is recorded as failed
// and never stops the others.
func RunTrial(ctx context.Context, opts *TrialOpts) (*result.ScoreTable, error) {
	cfg := opts.Config
	trialDir := result.TrialDir(opts.RunDir, opts.Trial)
	posesDir := result.PosesDir(trialDir)
	if err := os.MkdirAll(posesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trial dir: %w", err)
	}

	converter := &convert.Converter{
		Runner:  opts.Runner,
		Obabel:  cfg.Tools.Obabel,
		Timeout: cfg.Timeouts.Convert(),
	}

	receptor, err := prepareReceptor(ctx, converter, cfg.Receptor)
	if err != nil {
		return nil, err
	}

	if !opts.SkipGenerate {
		if opts.Generator == nil {
			return nil, errors.New("no generator configured")
		}
		fmt.Printf("Generating poses for trial %d...\n", opts.Trial)
		if err := opts.Generator.Run(ctx, opts.Trial); err != nil {
			return nil, fmt.Errorf("generating poses: %w", err)
		}
	}

	genDir := cfg.GenerationDir(opts.Trial)
	ids, err := pose.Discover(genDir)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Scoring %d poses from %s...\n", len(ids), genDir)

	p := &pipeline{
		cfg:       cfg,
		genDir:    genDir,
		posesDir:  posesDir,
		receptor:  receptor,
		converter: converter,
		filter: &energy.Filter{
			Runner:     opts.Runner,
			Obenergy:   cfg.Tools.Obenergy,
			OutputsDir: posesDir,
			Timeout:    cfg.Timeouts.Energy(),
		},
		scorer: &scoring.Scorer{
			Runner:    opts.Runner,
			Converter: converter,
			Smina:     cfg.Tools.Smina,
			Function:  cfg.Tools.Scoring,
			Timeout:   cfg.Timeouts.Score(),
		},
	}

	table := result.NewScoreTable(uuid.NewString(), opts.Trial, receptor, cfg.Tools.Scoring)
	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		id := id
		jobs = append(jobs, func(ctx context.Context) (err error) {
			var rec result.Record
			defer func() {
				if r := recover(); r != nil {
					rec.Outcome = result.Failed(fmt.Sprintf("panic: %v", r))
					err = fmt.Errorf("%s: panic: %v", id, r)
				}
				table.Set(id, rec)
			}()
			rec, err = p.scorePose(ctx, id)
			if err != nil {
				rec.Outcome = result.Failed(err.Error())
				return fmt.Errorf("%s: %w", id, err)
			}
			return nil
		})
	}
	for _, err := range RunPool(ctx, cfg.Parallel, jobs) {
		log.Printf("  pose failed: %v", err)
	}

	if err := result.WriteScoreTable(trialDir, table); err != nil {
		return nil, fmt.Errorf("writing scores: %w", err)
	}
	return table, nil
}

// prepareReceptor converts the receptor to PDBQT unless it already is.
func prepareReceptor(ctx context.Context, c *convert.Converter, receptor string) (string, error) {
	if convert.HasFormat(receptor, scoring.Format) {
		return receptor, nil
	}
	out, err := c.Convert(ctx, receptor, scoring.Format)
	if err != nil {
		return "", fmt.Errorf("preparing receptor: %w", err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("preparing receptor: converted file %s: %w", out, err)
	}
	return out, nil
}

func (p *pipeline) scorePose(ctx context.Context, id string) (result.Record, error) {
	var rec result.Record

	ps, err := pose.Select(p.genDir, id, p.cfg.Pose.Variant)
	if err != nil {
		return rec, err
	}
	rec.Confidence = ps.Confidence

	if err := pose.Stage(ps, p.posesDir, p.cfg.Pose.Cleanup); err != nil {
		return rec, err
	}

	ligand := ps.Path
	if !convert.HasFormat(ligand, scoring.Format) {
		if ligand, err = p.converter.Convert(ctx, ligand, scoring.Format); err != nil {
			return rec, err
		}
	}

	e := p.filter.Check(ctx, id)
	rec.Energy = &e
	if limit := p.cfg.Quality.MaxEnergy; limit > 0 && e > limit {
		return rec, fmt.Errorf("energy %.2f kcal/mol above threshold %.2f", e, limit)
	}

	affinity, err := p.scorer.Score(ctx, p.receptor, ligand)
	if err != nil {
		return rec, err
	}
	rec.Outcome = result.Scored(affinity)

	if c, err := structure.Centroid(ligand); err != nil {
		log.Printf("warning: centroid of %s: %v", ligand, err)
	} else {
		rec.Centroid = &c
	}
	return rec, nil
}
