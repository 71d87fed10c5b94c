package convert

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/signalnine/dockscore/internal/tools"
)

// Converter wraps Open Babel format conversion.
type Converter struct {
	Runner  tools.Runner
	Obabel  string
	Timeout time.Duration
}

// TargetPath replaces the extension of path with format.
func TargetPath(path, format string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + format
}

// Convert writes a sibling of path in the given format and returns its path.
// The output is not checked; a failed conversion shows up when the caller
// opens the returned path.
func (c *Converter) Convert(ctx context.Context, path, format string) (string, error) {
	out := TargetPath(path, format)
	res, err := c.Runner.Run(ctx, tools.Command{
		Name:    c.Obabel,
		Args:    []string{path, "-O", out},
		Timeout: c.Timeout,
	})
	if err != nil {
		return out, fmt.Errorf("converting %s to %s: %w", path, format, err)
	}
	if res.ExitCode != 0 {
		log.Printf("warning: %s exited %d converting %s: %s", c.Obabel, res.ExitCode, path, strings.TrimSpace(string(res.Stderr)))
	}
	return out, nil
}

// HasFormat reports whether path carries the extension of format.
func HasFormat(path, format string) bool {
	return strings.TrimPrefix(filepath.Ext(path), ".") == format
}
