//go:build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/dockscore/internal/config"
	"github.com/signalnine/dockscore/internal/report"
	"github.com/signalnine/dockscore/internal/result"
	"github.com/signalnine/dockscore/internal/runner"
	"github.com/signalnine/dockscore/internal/tools"
)

const pdbqt = `REMARK  Name = ligand
ROOT
HETATM    1  C   UNL     1       1.000   2.000   3.000  1.00  0.00    +0.000 C
HETATM    2  O   UNL     1       3.000   4.000   5.000  1.00  0.00    -0.300 OA
ENDROOT
TORSDOF 0
`

// smina prints no affinity for ligands marked BROKEN.
const sminaStub = `grep -q BROKEN "$4" && exit 0
echo "Affinity: -6.50000 (kcal/mol)"
`

// writeStub creates an executable shell script standing in for a tool.
func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStubToolsIntegration(t *testing.T) {
	base := t.TempDir()
	bin := filepath.Join(base, "bin")
	os.MkdirAll(bin, 0o755)

	cfg := &config.Config{
		Data:     config.Data{Dir: filepath.Join(base, "data")},
		Results:  config.Results{Dir: filepath.Join(base, "results")},
		Receptor: filepath.Join(base, "receptor.pdb"),
		Tools: config.Tools{
			Obabel:   writeStub(t, bin, "obabel", `cp "$1" "$3"`+"\n"),
			Obenergy: writeStub(t, bin, "obenergy", `printf '\n     TOTAL ENERGY = 42.00000 kcal/mol\n'`+"\n"),
			Smina:    writeStub(t, bin, "smina", sminaStub),
			Scoring:  "vina",
		},
		Timeouts: config.Timeouts{ConvertSeconds: 10, EnergySeconds: 10, ScoreSeconds: 10},
		Pose:     config.Pose{Variant: config.VariantRank1},
		Parallel: 2,
	}
	os.WriteFile(cfg.Receptor, []byte(pdbqt), 0o644)

	genDir := cfg.GenerationDir(1)
	for id, body := range map[string]string{"complex_a": pdbqt, "complex_b": pdbqt, "complex_c": "REMARK BROKEN\n" + pdbqt} {
		dir := filepath.Join(genDir, id)
		os.MkdirAll(dir, 0o755)
		os.WriteFile(filepath.Join(dir, "rank1.sdf"), []byte(body), 0o644)
	}

	runDir, err := result.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	table, err := runner.RunTrial(ctx, &runner.TrialOpts{
		Config:       cfg,
		Trial:        1,
		RunDir:       runDir,
		Runner:       tools.Exec{},
		SkipGenerate: true,
	})
	if err != nil {
		t.Fatalf("RunTrial: %v", err)
	}
	if scored, failed := table.Counts(); scored != 2 || failed != 1 {
		t.Errorf("counts: got %d scored, %d failed", scored, failed)
	}
	rec, _ := table.Get("complex_a")
	if a, ok := rec.Outcome.Affinity(); !ok || a != -6.5 {
		t.Errorf("complex_a: got %v", rec.Outcome)
	}
	if rec.Energy == nil || *rec.Energy != 42 {
		t.Errorf("complex_a energy: got %v", rec.Energy)
	}

	scoresPath := filepath.Join(result.TrialDir(runDir, 1), result.ScoresFile)
	if _, err := os.Stat(scoresPath); os.IsNotExist(err) {
		t.Error("scores.json not created")
	}
	if err := report.Generate(runDir, "table", os.Stdout); err != nil {
		t.Errorf("report: %v", err)
	}
}
