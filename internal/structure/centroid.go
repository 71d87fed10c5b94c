// Package structure reads atom coordinates from fixed-column PDB/PDBQT records.
package structure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

var ErrNoAtoms = errors.New("no ATOM or HETATM records")

// Vec is a point in Angstrom.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec) String() string {
	return fmt.Sprintf("%.3f %.3f %.3f", v.X, v.Y, v.Z)
}

// Centroid returns the mean coordinate of all atoms in a PDB or PDBQT file,
// rounded to 3 decimals.
func Centroid(path string) (Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return Vec{}, err
	}
	defer f.Close()
	c, err := CentroidFrom(f)
	if err != nil {
		return Vec{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func CentroidFrom(r io.Reader) (Vec, error) {
	var xs, ys, zs []float64
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if !isAtomRecord(line) {
			continue
		}
		v, err := parseCoords(line)
		if err != nil {
			return Vec{}, fmt.Errorf("line %d: %w", n, err)
		}
		xs = append(xs, v.X)
		ys = append(ys, v.Y)
		zs = append(zs, v.Z)
	}
	if err := sc.Err(); err != nil {
		return Vec{}, err
	}
	if len(xs) == 0 {
		return Vec{}, ErrNoAtoms
	}
	return Vec{
		X: round3(stat.Mean(xs, nil)),
		Y: round3(stat.Mean(ys, nil)),
		Z: round3(stat.Mean(zs, nil)),
	}, nil
}

func isAtomRecord(line string) bool {
	return strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM")
}

// parseCoords reads columns 31-38, 39-46 and 47-54.
func parseCoords(line string) (Vec, error) {
	if len(line) < 54 {
		return Vec{}, fmt.Errorf("atom record too short (%d columns)", len(line))
	}
	var v Vec
	var err error
	if v.X, err = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64); err != nil {
		return Vec{}, fmt.Errorf("x coordinate: %w", err)
	}
	if v.Y, err = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64); err != nil {
		return Vec{}, fmt.Errorf("y coordinate: %w", err)
	}
	if v.Z, err = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64); err != nil {
		return Vec{}, fmt.Errorf("z coordinate: %w", err)
	}
	return v, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
