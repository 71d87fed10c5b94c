package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Data     Data     `yaml:"data"`
	Receptor string   `yaml:"receptor"`
	DiffDock DiffDock `yaml:"diffdock"`
	Tools    Tools    `yaml:"tools"`
	Timeouts Timeouts `yaml:"timeouts"`
	Quality  Quality  `yaml:"quality"`
	Pose     Pose     `yaml:"pose"`
	Results  Results  `yaml:"results"`
	Parallel int      `yaml:"parallel"`
}

type Data struct {
	Dir string `yaml:"dir"`
}

type DiffDock struct {
	Backend           string `yaml:"backend"`
	Dir               string `yaml:"dir"`
	Python            string `yaml:"python"`
	Image             string `yaml:"image"`
	ContainerDir      string `yaml:"container_dir"`
	InferenceSteps    int    `yaml:"inference_steps"`
	SamplesPerComplex int    `yaml:"samples_per_complex"`
	BatchSize         int    `yaml:"batch_size"`
	ActualSteps       int    `yaml:"actual_steps"`
	NoFinalStepNoise  bool   `yaml:"no_final_step_noise"`
	GPUs              bool   `yaml:"gpus"`
}

type Tools struct {
	Obabel   string `yaml:"obabel"`
	Obenergy string `yaml:"obenergy"`
	Smina    string `yaml:"smina"`
	Scoring  string `yaml:"scoring"`
}

// Timeouts are in minutes for generation and seconds for the per-pose tools.
type Timeouts struct {
	GenerateMinutes int `yaml:"generate_minutes"`
	ConvertSeconds  int `yaml:"convert_seconds"`
	EnergySeconds   int `yaml:"energy_seconds"`
	ScoreSeconds    int `yaml:"score_seconds"`
}

type Quality struct {
	MaxEnergy float64 `yaml:"max_energy"`
}

type Pose struct {
	Variant string `yaml:"variant"`
	Cleanup bool   `yaml:"cleanup"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

const (
	BackendLocal  = "local"
	BackendDocker = "docker"

	VariantRank1      = "rank1"
	VariantConfidence = "confidence"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Receptor == "" {
		return fmt.Errorf("receptor is required")
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}

	d := &cfg.DiffDock
	switch d.Backend {
	case "":
		d.Backend = BackendLocal
	case BackendLocal, BackendDocker:
	default:
		return fmt.Errorf("diffdock backend %q: must be %q or %q", d.Backend, BackendLocal, BackendDocker)
	}
	if d.Backend == BackendDocker && d.Image == "" {
		return fmt.Errorf("diffdock image is required for the docker backend")
	}
	if d.Python == "" {
		d.Python = "python"
	}
	if d.Dir == "" {
		d.Dir = "."
	}
	if d.InferenceSteps == 0 {
		d.InferenceSteps = 20
	}
	if d.SamplesPerComplex == 0 {
		d.SamplesPerComplex = 20
	}
	if d.BatchSize == 0 {
		d.BatchSize = 10
	}
	if d.ActualSteps == 0 {
		d.ActualSteps = 18
	}
	if d.InferenceSteps < 0 || d.SamplesPerComplex < 0 || d.BatchSize < 0 || d.ActualSteps < 0 {
		return fmt.Errorf("diffdock step, sample and batch counts must be positive")
	}
	if d.ActualSteps > d.InferenceSteps {
		return fmt.Errorf("diffdock actual_steps (%d) exceeds inference_steps (%d)", d.ActualSteps, d.InferenceSteps)
	}

	t := &cfg.Tools
	if t.Obabel == "" {
		t.Obabel = "obabel"
	}
	if t.Obenergy == "" {
		t.Obenergy = "obenergy"
	}
	if t.Smina == "" {
		t.Smina = "./executables/smina"
	}
	if t.Scoring == "" {
		t.Scoring = "vina"
	}

	to := &cfg.Timeouts
	if to.GenerateMinutes == 0 {
		to.GenerateMinutes = 120
	}
	if to.ConvertSeconds == 0 {
		to.ConvertSeconds = 60
	}
	if to.EnergySeconds == 0 {
		to.EnergySeconds = 60
	}
	if to.ScoreSeconds == 0 {
		to.ScoreSeconds = 300
	}
	if to.GenerateMinutes < 0 || to.ConvertSeconds < 0 || to.EnergySeconds < 0 || to.ScoreSeconds < 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	switch cfg.Pose.Variant {
	case "":
		cfg.Pose.Variant = VariantRank1
	case VariantRank1, VariantConfidence:
	default:
		return fmt.Errorf("pose variant %q: must be %q or %q", cfg.Pose.Variant, VariantRank1, VariantConfidence)
	}

	if cfg.Quality.MaxEnergy < 0 {
		return fmt.Errorf("quality max_energy must not be negative")
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	return nil
}

// TrialCSV is the DiffDock protein_ligand_csv for a trial.
func (c *Config) TrialCSV(trial int) string {
	return filepath.Join(c.Data.Dir, "trials", fmt.Sprintf("trial_%d.csv", trial))
}

// GenerationDir is where DiffDock writes the poses of a trial.
func (c *Config) GenerationDir(trial int) string {
	return filepath.Join(c.Results.Dir, fmt.Sprintf("trial_%d", trial))
}

func (t Timeouts) Generate() time.Duration { return time.Duration(t.GenerateMinutes) * time.Minute }
func (t Timeouts) Convert() time.Duration  { return time.Duration(t.ConvertSeconds) * time.Second }
func (t Timeouts) Energy() time.Duration   { return time.Duration(t.EnergySeconds) * time.Second }
func (t Timeouts) Score() time.Duration    { return time.Duration(t.ScoreSeconds) * time.Second }
