package energy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/signalnine/dockscore/internal/tools"
)

// Failed is returned by Check when the energy could not be computed.
const Failed = 10000.0

var ErrUnexpectedOutput = errors.New("unexpected obenergy output")

// Filter computes total energies of staged poses with obenergy.
type Filter struct {
	Runner     tools.Runner
	Obenergy   string
	OutputsDir string
	Timeout    time.Duration
}

// PosePath is the normalized pose file obenergy is run on.
func PosePath(outputsDir, poseID string) string {
	return filepath.Join(outputsDir, fmt.Sprintf("pose_%s.pdbqt", poseID))
}

// Check returns the total energy of a pose in kcal/mol, or Failed.
func (f *Filter) Check(ctx context.Context, poseID string) float64 {
	e, err := f.Measure(ctx, poseID)
	if err != nil {
		log.Printf("energy check for %s failed: %v", poseID, err)
		return Failed
	}
	return e
}

func (f *Filter) Measure(ctx context.Context, poseID string) (float64, error) {
	path := PosePath(f.OutputsDir, poseID)
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	res, err := f.Runner.Run(ctx, tools.Command{
		Name:    f.Obenergy,
		Args:    []string{path},
		Timeout: f.Timeout,
	})
	if err != nil {
		return 0, err
	}
	return ParseTotalEnergy(string(res.Stdout))
}

// ParseTotalEnergy reads the second to last token of the second to last
// output line, which for obenergy is "TOTAL ENERGY = <value> kcal/mol".
func ParseTotalEnergy(output string) (float64, error) {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return 0, ErrUnexpectedOutput
	}
	fields := strings.Fields(lines[len(lines)-2])
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrUnexpectedOutput, lines[len(lines)-2])
	}
	v, err := strconv.ParseFloat(fields[len(fields)-2], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}
	return v, nil
}
