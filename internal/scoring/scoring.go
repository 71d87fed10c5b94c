package scoring

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalnine/dockscore/internal/convert"
	"github.com/signalnine/dockscore/internal/tools"
)

const Format = "pdbqt"

const affinityMarker = "Affinity"

var (
	ErrFormatMismatch = errors.New("receptor must be in pdbqt format")
	ErrNoAffinity     = errors.New("no affinity line found in scoring output")
)

// NotFoundError names an input file that does not exist.
type NotFoundError struct {
	Role string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s path %s not found", e.Role, e.Path)
}

// Scorer runs smina in score-only mode on a prepared receptor and a ligand pose.
type Scorer struct {
	Runner    tools.Runner
	Converter *convert.Converter
	Smina     string
	Function  string
	Timeout   time.Duration
}

func (s *Scorer) Score(ctx context.Context, receptor, ligand string) (float64, error) {
	if !convert.HasFormat(receptor, Format) {
		return 0, fmt.Errorf("%s: %w", receptor, ErrFormatMismatch)
	}
	if !exists(receptor) {
		return 0, &NotFoundError{Role: "receptor", Path: receptor}
	}
	if !exists(ligand) {
		return 0, &NotFoundError{Role: "ligand", Path: ligand}
	}

	if !convert.HasFormat(ligand, Format) {
		log.Printf("ligand %s is not pdbqt, converting with obabel", ligand)
		converted, err := s.Converter.Convert(ctx, ligand, Format)
		if err != nil {
			return 0, err
		}
		if !exists(converted) {
			return 0, &NotFoundError{Role: "converted ligand", Path: converted}
		}
		ligand = converted
	}

	function := s.Function
	if function == "" {
		function = "vina"
	}
	res, err := s.Runner.Run(ctx, tools.Command{
		Name:    s.Smina,
		Args:    []string{"--receptor", receptor, "-l", ligand, "--score_only", "--scoring", function},
		Timeout: s.Timeout,
	})
	if err != nil {
		return 0, fmt.Errorf("scoring %s: %w", ligand, err)
	}
	affinity, err := ParseAffinity(string(res.Stdout))
	if err != nil {
		if res.ExitCode != 0 {
			return 0, fmt.Errorf("scoring %s (exit %d): %w", ligand, res.ExitCode, err)
		}
		return 0, fmt.Errorf("scoring %s: %w", ligand, err)
	}
	return affinity, nil
}

// ParseAffinity returns the value following the first "Affinity" marker,
// e.g. "Affinity: -7.34521 (kcal/mol)".
func ParseAffinity(output string) (float64, error) {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, affinityMarker) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("affinity line %q: %w", line, ErrNoAffinity)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, fmt.Errorf("parsing affinity %q: %w", fields[1], err)
		}
		return v, nil
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading scoring output: %w", err)
	}
	return 0, ErrNoAffinity
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
