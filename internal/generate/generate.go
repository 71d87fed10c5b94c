// Package generate runs DiffDock to produce candidate poses for a trial.
package generate

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/docker"
	"github.com/signalnine/dockscore/internal/tools"
)

type Generator struct {
	Config *config.Config
	Runner tools.Runner
	// RunContainer is docker.RunContainer unless replaced in tests.
	RunContainer func(context.Context, *docker.RunOpts) (*docker.RunResult, error)
}

func New(cfg *config.Config, runner tools.Runner) *Generator {
	return &Generator{Config: cfg, Runner: runner, RunContainer: docker.RunContainer}
}

// InferenceArgs builds the `python -m inference` argument list.
func InferenceArgs(d config.DiffDock, csvPath, outDir string) []string {
	args := []string{
		"-m", "inference",
		"--protein_ligand_csv", csvPath,
		"--out_dir", outDir,
		"--inference_steps", strconv.Itoa(d.InferenceSteps),
		"--samples_per_complex", strconv.Itoa(d.SamplesPerComplex),
		"--batch_size", strconv.Itoa(d.BatchSize),
		"--actual_steps", strconv.Itoa(d.ActualSteps),
	}
	if d.NoFinalStepNoise {
		args = append(args, "--no_final_step_noise")
	}
	return args
}

// Run generates poses for a trial into cfg.GenerationDir(trial).
func (g *Generator) Run(ctx context.Context, trial int) error {
	csvPath, err := filepath.Abs(g.Config.TrialCSV(trial))
	if err != nil {
		return fmt.Errorf("resolving trial csv: %w", err)
	}
	complexes, err := ReadTrialCSV(csvPath)
	if err != nil {
		return fmt.Errorf("trial %d input: %w", trial, err)
	}
	log.Printf("trial %d: %d complexes in %s", trial, len(complexes), csvPath)
	outDir, err := filepath.Abs(g.Config.GenerationDir(trial))
	if err != nil {
		return fmt.Errorf("resolving output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	switch g.Config.DiffDock.Backend {
	case config.BackendDocker:
		return g.runDocker(ctx, csvPath, outDir)
	default:
		return g.runLocal(ctx, csvPath, outDir)
	}
}

func (g *Generator) runLocal(ctx context.Context, csvPath, outDir string) error {
	d := g.Config.DiffDock
	cmd := tools.Command{
		Name:    d.Python,
		Args:    InferenceArgs(d, csvPath, outDir),
		Dir:     d.Dir,
		Timeout: g.Config.Timeouts.Generate(),
	}
	log.Printf("generating poses: %s", cmd)
	res, err := g.Runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("diffdock: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("diffdock exited %d: %s", res.ExitCode, tail(res.Stderr, 20))
	}
	return nil
}

// runDocker mounts the data dir read-only at /data and the output dir at
// docker.ContainerOutDir. DiffDock runs in diffdock.container_dir, or in the
// image's WORKDIR when unset. Trial CSV entries must use paths valid inside
// the container.
func (g *Generator) runDocker(ctx context.Context, csvPath, outDir string) error {
	d := g.Config.DiffDock
	dataDir, err := filepath.Abs(g.Config.Data.Dir)
	if err != nil {
		return fmt.Errorf("resolving data dir: %w", err)
	}
	rel, err := filepath.Rel(dataDir, csvPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("trial csv %s is outside data dir %s", csvPath, dataDir)
	}
	containerCSV := "/data/" + filepath.ToSlash(rel)

	res, err := g.RunContainer(ctx, &docker.RunOpts{
		Image:      d.Image,
		Command:    append([]string{d.Python}, InferenceArgs(d, containerCSV, docker.ContainerOutDir)...),
		OutDir:     outDir,
		WorkingDir: d.ContainerDir,
		Timeout:    g.Config.Timeouts.Generate(),
		ExtraMounts: []docker.Mount{
			{Source: dataDir, Target: "/data", ReadOnly: true},
		},
		GPUs:   d.GPUs,
		UserID: fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
	})
	if err != nil {
		return fmt.Errorf("diffdock container: %w", err)
	}
	if res.TimedOut {
		return fmt.Errorf("diffdock container timed out after %v", g.Config.Timeouts.Generate())
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("diffdock container exited %d", res.ExitCode)
	}
	return nil
}

func tail(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
