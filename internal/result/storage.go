package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const ScoresFile = "scores.json"

func CreateRunDir(baseDir string) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(runsDir, stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

func TrialDir(runDir string, trial int) string {
	return filepath.Join(runDir, fmt.Sprintf("trial-%d", trial))
}

// PosesDir holds the staged and normalized pose files of a trial.
func PosesDir(trialDir string) string {
	return filepath.Join(trialDir, "poses")
}

func WriteScoreTable(trialDir string, table *ScoreTable) error {
	if err := os.MkdirAll(trialDir, 0o755); err != nil {
		return fmt.Errorf("creating trial dir: %w", err)
	}
	table.mu.Lock()
	data, err := json.MarshalIndent(table, "", "  ")
	table.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling scores: %w", err)
	}
	return os.WriteFile(filepath.Join(trialDir, ScoresFile), data, 0o644)
}

func ReadScoreTable(path string) (*ScoreTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scores: %w", err)
	}
	var table ScoreTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing scores: %w", err)
	}
	if table.Poses == nil {
		table.Poses = map[string]Record{}
	}
	return &table, nil
}
