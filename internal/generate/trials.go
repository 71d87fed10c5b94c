package generate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var ErrNoComplexes = errors.New("trial csv lists no complexes")

var trialFileRe = regexp.MustCompile(`^trial_(\d+)\.csv$`)

// Complex is one row of a DiffDock protein_ligand_csv.
type Complex struct {
	Name     string
	Protein  string
	Ligand   string
	Sequence string
}

// ReadTrialCSV parses a protein_ligand_csv. The complex_name and
// ligand_description columns are required; protein_path and protein_sequence
// may be empty but one of them must be set per row.
func ReadTrialCSV(path string) ([]Complex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", path, ErrNoComplexes)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"complex_name", "ligand_description"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var complexes []Complex
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c := Complex{
			Name:     get(rec, "complex_name"),
			Protein:  get(rec, "protein_path"),
			Ligand:   get(rec, "ligand_description"),
			Sequence: get(rec, "protein_sequence"),
		}
		if c.Ligand == "" {
			return nil, fmt.Errorf("%s line %d: empty ligand_description", path, line)
		}
		if c.Protein == "" && c.Sequence == "" {
			return nil, fmt.Errorf("%s line %d: protein_path or protein_sequence is required", path, line)
		}
		complexes = append(complexes, c)
	}
	if len(complexes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoComplexes)
	}
	return complexes, nil
}

// Trial is a trial input file found in the data directory.
type Trial struct {
	Number int
	Path   string
}

// ListTrials finds trial_<N>.csv files under <dataDir>/trials, ordered by N.
func ListTrials(dataDir string) ([]Trial, error) {
	dir := filepath.Join(dataDir, "trials")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading trials dir: %w", err)
	}
	var trials []Trial
	for _, e := range entries {
		m := trialFileRe.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		trials = append(trials, Trial{Number: n, Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(trials, func(i, j int) bool { return trials[i].Number < trials[j].Number })
	return trials, nil
}
