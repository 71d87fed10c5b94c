package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/signalnine/dockscore/internal/result"
)

type TrialSummary struct {
	Trial        int     `json:"trial"`
	RunID        string  `json:"run_id"`
	Poses        int     `json:"poses"`
	Scored       int     `json:"scored"`
	Failed       int     `json:"failed"`
	BestPose     string  `json:"best_pose,omitempty"`
	BestAffinity float64 `json:"best_affinity"`
	MeanAffinity float64 `json:"mean_affinity"`
	StdAffinity  float64 `json:"std_affinity"`
}

// Generate reads the score tables under runDir and writes a summary report.
func Generate(runDir, format string, w io.Writer) error {
	tables, err := collectTables(runDir)
	if err != nil {
		return err
	}

	summaries := make([]TrialSummary, 0, len(tables))
	for _, t := range tables {
		summaries = append(summaries, Summarize(t))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Trial < summaries[j].Trial
	})

	switch format {
	case "markdown":
		return writeMarkdown(summaries, w)
	case "json":
		return writeJSON(summaries, w)
	case "poses":
		return writePoses(tables, w)
	default:
		return writeTable(summaries, w)
	}
}

func collectTables(runDir string) ([]*result.ScoreTable, error) {
	var tables []*result.ScoreTable
	err := filepath.Walk(runDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Name() == result.ScoresFile {
			t, err := result.ReadScoreTable(path)
			if err != nil {
				return nil
			}
			tables = append(tables, t)
		}
		return nil
	})
	return tables, err
}

// Summarize computes counts and affinity statistics for one trial. Affinity
// statistics are NaN when no pose was scored.
func Summarize(t *result.ScoreTable) TrialSummary {
	scored, failed := t.Counts()
	s := TrialSummary{
		Trial:        t.Trial,
		RunID:        t.RunID,
		Poses:        scored + failed,
		Scored:       scored,
		Failed:       failed,
		BestAffinity: math.NaN(),
		MeanAffinity: math.NaN(),
		StdAffinity:  math.NaN(),
	}

	var ids []string
	var affinities []float64
	for _, id := range t.IDs() {
		rec, _ := t.Get(id)
		if a, ok := rec.Outcome.Affinity(); ok {
			ids = append(ids, id)
			affinities = append(affinities, a)
		}
	}
	if len(affinities) == 0 {
		return s
	}
	best := floats.MinIdx(affinities)
	s.BestPose = ids[best]
	s.BestAffinity = affinities[best]
	if len(affinities) == 1 {
		s.MeanAffinity, s.StdAffinity = affinities[0], 0
	} else {
		s.MeanAffinity, s.StdAffinity = stat.MeanStdDev(affinities, nil)
	}
	return s
}

func fmtAffinity(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}

func writeTable(summaries []TrialSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIAL\tPOSES\tSCORED\tFAILED\tBEST POSE\tBEST\tMEAN\tSTD")
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			s.Trial, s.Poses, s.Scored, s.Failed, s.BestPose,
			fmtAffinity(s.BestAffinity), fmtAffinity(s.MeanAffinity), fmtAffinity(s.StdAffinity))
	}
	return tw.Flush()
}

func writeMarkdown(summaries []TrialSummary, w io.Writer) error {
	fmt.Fprintln(w, "| Trial | Poses | Scored | Failed | Best Pose | Best | Mean | Std |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|")
	for _, s := range summaries {
		fmt.Fprintf(w, "| %d | %d | %d | %d | %s | %s | %s | %s |\n",
			s.Trial, s.Poses, s.Scored, s.Failed, s.BestPose,
			fmtAffinity(s.BestAffinity), fmtAffinity(s.MeanAffinity), fmtAffinity(s.StdAffinity))
	}
	return nil
}

// jsonSummary replaces NaN statistics with null.
type jsonSummary struct {
	TrialSummary
	BestAffinity *float64 `json:"best_affinity"`
	MeanAffinity *float64 `json:"mean_affinity"`
	StdAffinity  *float64 `json:"std_affinity"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func writeJSON(summaries []TrialSummary, w io.Writer) error {
	out := make([]jsonSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, jsonSummary{
			TrialSummary: s,
			BestAffinity: optional(s.BestAffinity),
			MeanAffinity: optional(s.MeanAffinity),
			StdAffinity:  optional(s.StdAffinity),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writePoses lists every pose outcome, one line per pose.
func writePoses(tables []*result.ScoreTable, w io.Writer) error {
	sort.Slice(tables, func(i, j int) bool { return tables[i].Trial < tables[j].Trial })
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIAL\tPOSE\tRESULT\tENERGY\tCONFIDENCE\tCENTROID")
	for _, t := range tables {
		for _, id := range t.IDs() {
			rec, _ := t.Get(id)
			energy, confidence, centroid := "-", "-", "-"
			if rec.Energy != nil {
				energy = fmt.Sprintf("%.2f", *rec.Energy)
			}
			if rec.Confidence != nil {
				confidence = fmt.Sprintf("%.2f", *rec.Confidence)
			}
			if rec.Centroid != nil {
				centroid = rec.Centroid.String()
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.Trial, id, rec.Outcome, energy, confidence, centroid)
		}
	}
	return tw.Flush()
}
