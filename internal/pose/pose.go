package pose

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/signalnine/dockscore/internal/config"
)

const rank1File = "rank1.sdf"

var (
	ErrNoConfidence = errors.New("filename carries no rank1 confidence")
	ErrNoPoseFile   = errors.New("no pose file found")
)

var confidenceRe = regexp.MustCompile(`^rank1_confidence([+-]?\d+\.\d+)\.sdf$`)

// Pose is the top-ranked DiffDock pose of one complex.
type Pose struct {
	ID         string
	Dir        string
	Path       string
	Confidence *float64
}

// Format is the pose file extension without the dot.
func (p *Pose) Format() string {
	return strings.TrimPrefix(filepath.Ext(p.Path), ".")
}

// Discover lists the complex directories of a DiffDock output directory.
func Discover(trialDir string) ([]string, error) {
	entries, err := os.ReadDir(trialDir)
	if err != nil {
		return nil, fmt.Errorf("reading trial output: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Select locates the pose file of a complex directory for the given variant.
func Select(trialDir, id, variant string) (*Pose, error) {
	dir := filepath.Join(trialDir, id)
	p := &Pose{ID: id, Dir: dir}

	switch variant {
	case config.VariantConfidence:
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			c, err := ParseConfidence(e.Name())
			if err != nil {
				continue
			}
			p.Path = filepath.Join(dir, e.Name())
			p.Confidence = &c
			return p, nil
		}
		return nil, fmt.Errorf("%s: %w", dir, ErrNoPoseFile)
	default:
		p.Path = filepath.Join(dir, rank1File)
		if _, err := os.Stat(p.Path); err != nil {
			return nil, fmt.Errorf("%s: %w", p.Path, ErrNoPoseFile)
		}
		return p, nil
	}
}

// ParseConfidence extracts the value from a name like rank1_confidence-5.23.sdf.
func ParseConfidence(name string) (float64, error) {
	m := confidenceRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, fmt.Errorf("%s: %w", name, ErrNoConfidence)
	}
	return strconv.ParseFloat(m[1], 64)
}

// Stage copies the pose file to <outputsDir>/pose_<id>.<ext> and points the
// pose at the copy. With cleanup the complex directory is removed afterwards.
func Stage(p *Pose, outputsDir string, cleanup bool) error {
	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		return fmt.Errorf("creating outputs dir: %w", err)
	}
	dst := filepath.Join(outputsDir, fmt.Sprintf("pose_%s.%s", p.ID, p.Format()))
	if err := copyFile(p.Path, dst); err != nil {
		return fmt.Errorf("staging %s: %w", p.Path, err)
	}
	if cleanup {
		if err := os.RemoveAll(p.Dir); err != nil {
			return fmt.Errorf("removing %s: %w", p.Dir, err)
		}
	}
	p.Path = dst
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
