package report_test

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/dockscore/internal/report"
	"github.com/signalnine/dockscore/internal/result"
)

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func writeTrials(t *testing.T) string {
	t.Helper()
	runDir := filepath.Join(t.TempDir(), "runs", "test-run")

	t1 := result.NewScoreTable("run-a", 1, "rec.pdbqt", "vina")
	t1.Set("complex_a", result.Record{Outcome: result.Scored(-7.0)})
	t1.Set("complex_b", result.Record{Outcome: result.Scored(-9.0)})
	t1.Set("complex_c", result.Record{Outcome: result.Failed("no affinity line found in scoring output")})

	t2 := result.NewScoreTable("run-a", 2, "rec.pdbqt", "vina")
	t2.Set("complex_x", result.Record{Outcome: result.Failed("no pose file found")})

	for _, tbl := range []*result.ScoreTable{t1, t2} {
		if err := result.WriteScoreTable(result.TrialDir(runDir, tbl.Trial), tbl); err != nil {
			t.Fatal(err)
		}
	}
	return runDir
}

func TestSummarize(t *testing.T) {
	tbl := result.NewScoreTable("r", 1, "rec.pdbqt", "vina")
	tbl.Set("a", result.Record{Outcome: result.Scored(-7.0)})
	tbl.Set("b", result.Record{Outcome: result.Scored(-9.0)})
	tbl.Set("c", result.Record{Outcome: result.Failed("boom")})

	s := report.Summarize(tbl)
	if s.Poses != 3 || s.Scored != 2 || s.Failed != 1 {
		t.Errorf("counts: got %+v", s)
	}
	if s.BestPose != "b" || s.BestAffinity != -9.0 {
		t.Errorf("best: got %s %f", s.BestPose, s.BestAffinity)
	}
	if s.MeanAffinity != -8.0 {
		t.Errorf("mean: got %f, want -8", s.MeanAffinity)
	}
	if absf(s.StdAffinity-math.Sqrt2) > 1e-9 {
		t.Errorf("std: got %f, want %f", s.StdAffinity, math.Sqrt2)
	}
}

func TestSummarizeNoScores(t *testing.T) {
	tbl := result.NewScoreTable("r", 1, "rec.pdbqt", "vina")
	tbl.Set("a", result.Record{Outcome: result.Failed("boom")})
	s := report.Summarize(tbl)
	if !math.IsNaN(s.BestAffinity) || !math.IsNaN(s.MeanAffinity) || s.BestPose != "" {
		t.Errorf("expected empty statistics, got %+v", s)
	}
}

func TestGenerateTable(t *testing.T) {
	runDir := writeTrials(t)
	var buf bytes.Buffer
	if err := report.Generate(runDir, "table", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "complex_b") {
		t.Error("expected best pose complex_b in output")
	}
	if !strings.Contains(out, "-9.000") {
		t.Error("expected best affinity in output")
	}
}

func TestGenerateJSON(t *testing.T) {
	runDir := writeTrials(t)
	var buf bytes.Buffer
	if err := report.Generate(runDir, "json", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trials, got %d", len(got))
	}
	if got[0]["best_pose"] != "complex_b" {
		t.Errorf("trial 1 best pose: got %v", got[0]["best_pose"])
	}
	if got[1]["best_affinity"] != nil {
		t.Errorf("trial 2 best affinity should be null, got %v", got[1]["best_affinity"])
	}
}

func TestGeneratePoses(t *testing.T) {
	runDir := writeTrials(t)
	var buf bytes.Buffer
	if err := report.Generate(runDir, "poses", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"complex_a", "-7.000", "error: no pose file found"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
