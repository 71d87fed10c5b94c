package result

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalnine/dockscore/internal/structure"
)

// Outcome is either a binding affinity or a failure reason, never both.
// The zero Outcome is a failure.
type Outcome struct {
	affinity float64
	reason   string
	scored   bool
}

func Scored(affinity float64) Outcome { return Outcome{affinity: affinity, scored: true} }

func Failed(reason string) Outcome { return Outcome{reason: reason} }

// Affinity returns the score and true, or 0 and false for a failed pose.
func (o Outcome) Affinity() (float64, bool) { return o.affinity, o.scored }

// Reason returns the failure reason and true for a failed pose.
func (o Outcome) Reason() (string, bool) {
	if o.scored {
		return "", false
	}
	if o.reason == "" {
		return "unknown failure", true
	}
	return o.reason, true
}

func (o Outcome) String() string {
	if reason, failed := o.Reason(); failed {
		return "error: " + reason
	}
	return fmt.Sprintf("%.3f", o.affinity)
}

type outcomeJSON struct {
	Affinity *float64 `json:"affinity,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if reason, failed := o.Reason(); failed {
		return json.Marshal(outcomeJSON{Error: reason})
	}
	a := o.affinity
	return json.Marshal(outcomeJSON{Affinity: &a})
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var raw outcomeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Error != "" && raw.Affinity != nil:
		return fmt.Errorf("outcome has both affinity and error")
	case raw.Affinity != nil:
		*o = Scored(*raw.Affinity)
	case raw.Error != "":
		*o = Failed(raw.Error)
	default:
		return fmt.Errorf("outcome has neither affinity nor error")
	}
	return nil
}

// Record is everything known about one pose after scoring.
type Record struct {
	Outcome    Outcome        `json:"outcome"`
	Confidence *float64       `json:"confidence,omitempty"`
	Energy     *float64       `json:"energy,omitempty"`
	Centroid   *structure.Vec `json:"centroid,omitempty"`
}

// ScoreTable maps pose ids to their records. Safe for concurrent Set.
type ScoreTable struct {
	RunID     string            `json:"run_id"`
	Trial     int               `json:"trial"`
	Receptor  string            `json:"receptor"`
	Scoring   string            `json:"scoring"`
	StartedAt time.Time         `json:"started_at"`
	Poses     map[string]Record `json:"poses"`

	mu sync.Mutex
}

func NewScoreTable(runID string, trial int, receptor, scoring string) *ScoreTable {
	return &ScoreTable{
		RunID:     runID,
		Trial:     trial,
		Receptor:  receptor,
		Scoring:   scoring,
		StartedAt: time.Now().UTC(),
		Poses:     map[string]Record{},
	}
}

func (t *ScoreTable) Set(id string, rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Poses[id] = rec
}

func (t *ScoreTable) Get(id string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.Poses[id]
	return rec, ok
}

// IDs returns the pose ids in sorted order.
func (t *ScoreTable) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.Poses))
	for id := range t.Poses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Counts returns how many poses were scored and how many failed.
func (t *ScoreTable) Counts() (scored, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.Poses {
		if _, ok := rec.Outcome.Affinity(); ok {
			scored++
		} else {
			failed++
		}
	}
	return scored, failed
}

// Affinities returns the scores of successful poses in id order.
func (t *ScoreTable) Affinities() []float64 {
	var out []float64
	for _, id := range t.IDs() {
		rec, _ := t.Get(id)
		if a, ok := rec.Outcome.Affinity(); ok {
			out = append(out, a)
		}
	}
	return out
}
