package generate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/docker"
	"github.com/signalnine/dockscore/internal/generate"
	"github.com/signalnine/dockscore/internal/tools"
	"github.com/signalnine/dockscore/internal/tools/toolstest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		Data:    config.Data{Dir: filepath.Join(base, "data")},
		Results: config.Results{Dir: filepath.Join(base, "results")},
		DiffDock: config.DiffDock{
			Backend:           config.BackendLocal,
			Dir:               base,
			Python:            "python",
			InferenceSteps:    20,
			SamplesPerComplex: 20,
			BatchSize:         10,
			ActualSteps:       18,
			NoFinalStepNoise:  true,
		},
		Timeouts: config.Timeouts{GenerateMinutes: 1},
	}
	csv := cfg.TrialCSV(3)
	if err := os.MkdirAll(filepath.Dir(csv), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csv, []byte("complex_name,protein_path,ligand_description,protein_sequence\n1a0q,data/1a0q/trim58.pdb,CCO,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestInferenceArgs(t *testing.T) {
	d := config.DiffDock{InferenceSteps: 20, SamplesPerComplex: 20, BatchSize: 10, ActualSteps: 18, NoFinalStepNoise: true}
	got := strings.Join(generate.InferenceArgs(d, "data/trials/trial_3.csv", "results/trial_3"), " ")
	want := "-m inference --protein_ligand_csv data/trials/trial_3.csv --out_dir results/trial_3 --inference_steps 20 --samples_per_complex 20 --batch_size 10 --actual_steps 18 --no_final_step_noise"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}

	d.NoFinalStepNoise = false
	if args := generate.InferenceArgs(d, "a.csv", "out"); args[len(args)-1] == "--no_final_step_noise" {
		t.Error("unexpected --no_final_step_noise")
	}
}

func TestRunLocal(t *testing.T) {
	cfg := testConfig(t)
	fake := toolstest.New().Handle("python", func(cmd tools.Command) (*tools.Result, error) {
		return &tools.Result{}, nil
	})
	if err := generate.New(cfg, fake).Run(context.Background(), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	calls := fake.Calls("python")
	if len(calls) != 1 {
		t.Fatalf("expected 1 python call, got %d", len(calls))
	}
	if calls[0].Dir != cfg.DiffDock.Dir {
		t.Errorf("dir: got %q, want %q", calls[0].Dir, cfg.DiffDock.Dir)
	}
	if calls[0].Timeout != cfg.Timeouts.Generate() {
		t.Errorf("timeout: got %v", calls[0].Timeout)
	}
	if _, err := os.Stat(cfg.GenerationDir(3)); err != nil {
		t.Errorf("generation dir not created: %v", err)
	}
}

func TestRunLocalFailure(t *testing.T) {
	cfg := testConfig(t)
	fake := toolstest.New().Handle("python", func(cmd tools.Command) (*tools.Result, error) {
		return &tools.Result{ExitCode: 1, Stderr: []byte("CUDA out of memory")}, nil
	})
	err := generate.New(cfg, fake).Run(context.Background(), 3)
	if err == nil || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Errorf("expected error carrying stderr, got %v", err)
	}
}

func TestRunMissingCSV(t *testing.T) {
	cfg := testConfig(t)
	fake := toolstest.New()
	if err := generate.New(cfg, fake).Run(context.Background(), 99); err == nil {
		t.Error("expected error for missing trial csv")
	}
	if n := len(fake.Calls()); n != 0 {
		t.Errorf("expected no invocations, got %d", n)
	}
}

func TestRunDocker(t *testing.T) {
	tests := []struct {
		name         string
		containerDir string
	}{
		{"image workdir", ""},
		{"configured dir", "/home/appuser/DiffDock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.DiffDock.Backend = config.BackendDocker
			cfg.DiffDock.Image = "diffdock:test"
			cfg.DiffDock.Python = "/opt/conda/bin/python"
			cfg.DiffDock.ContainerDir = tt.containerDir

			var got *docker.RunOpts
			g := generate.New(cfg, toolstest.New())
			g.RunContainer = func(ctx context.Context, opts *docker.RunOpts) (*docker.RunResult, error) {
				got = opts
				return &docker.RunResult{}, nil
			}
			if err := g.Run(context.Background(), 3); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got == nil {
				t.Fatal("container was not run")
			}
			if got.Image != "diffdock:test" {
				t.Errorf("image: got %q", got.Image)
			}
			if got.Command[0] != "/opt/conda/bin/python" {
				t.Errorf("interpreter: got %q", got.Command[0])
			}
			if got.WorkingDir != tt.containerDir {
				t.Errorf("working dir: got %q, want %q", got.WorkingDir, tt.containerDir)
			}
			cmd := strings.Join(got.Command, " ")
			if !strings.Contains(cmd, "--protein_ligand_csv /data/trials/trial_3.csv") || !strings.Contains(cmd, "--out_dir "+docker.ContainerOutDir) {
				t.Errorf("command: got %q", cmd)
			}
			if got.OutDir != cfg.GenerationDir(3) {
				t.Errorf("output dir: got %q", got.OutDir)
			}
			if len(got.ExtraMounts) != 1 || got.ExtraMounts[0].Target != "/data" || !got.ExtraMounts[0].ReadOnly {
				t.Errorf("mounts: got %+v", got.ExtraMounts)
			}
		})
	}
}

func TestRunDockerTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.DiffDock.Backend = config.BackendDocker
	cfg.DiffDock.Image = "diffdock:test"

	g := generate.New(cfg, toolstest.New())
	g.RunContainer = func(ctx context.Context, opts *docker.RunOpts) (*docker.RunResult, error) {
		return &docker.RunResult{ExitCode: 124, TimedOut: true}, nil
	}
	if err := g.Run(context.Background(), 3); err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got %v", err)
	}
}
