package cmd

import (
	"testing"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/structure"
)

func changedSet(names ...string) func(string) bool {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestApplyOverrides(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Parallel: 2,
			Pose:     config.Pose{Variant: config.VariantRank1},
			Quality:  config.Quality{MaxEnergy: 100},
		}
	}

	t.Run("unchanged flags keep config", func(t *testing.T) {
		flagParallel, flagVariant, flagCleanup, flagMaxEnergy = 1, config.VariantConfidence, true, 0
		cfg := base()
		if err := applyOverrides(cfg, changedSet()); err != nil {
			t.Fatal(err)
		}
		if cfg.Parallel != 2 || cfg.Pose.Variant != config.VariantRank1 || cfg.Pose.Cleanup || cfg.Quality.MaxEnergy != 100 {
			t.Errorf("config modified: %+v", cfg)
		}
	})

	t.Run("changed flags override", func(t *testing.T) {
		flagParallel, flagVariant, flagCleanup, flagMaxEnergy = 8, config.VariantConfidence, true, 0
		cfg := base()
		if err := applyOverrides(cfg, changedSet("parallel", "variant", "cleanup", "max-energy")); err != nil {
			t.Fatal(err)
		}
		if cfg.Parallel != 8 || cfg.Pose.Variant != config.VariantConfidence || !cfg.Pose.Cleanup || cfg.Quality.MaxEnergy != 0 {
			t.Errorf("overrides not applied: %+v", cfg)
		}
	})

	tests := []struct {
		name string
		set  func()
		flag string
	}{
		{"zero parallel", func() { flagParallel = 0 }, "parallel"},
		{"unknown variant", func() { flagVariant = "rank5" }, "variant"},
		{"negative max energy", func() { flagMaxEnergy = -1 }, "max-energy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.set()
			if err := applyOverrides(base(), changedSet(tt.flag)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBoxArgs(t *testing.T) {
	got := boxArgs(structure.Vec{X: -0.167, Y: 2.083, Z: 6.375}, 20)
	want := "--center_x -0.167 --center_y 2.083 --center_z 6.375 --size_x 20.0 --size_y 20.0 --size_z 20.0"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}
