// Package audit records how every score was produced.
//
// Each score gets one entry per contributing factor, carrying enough detail
// that the score is independently recomputable: the displayed value always
// equals the clamped, rounded sum of its entries' weighted contributions.
// A trail is write-once: sealing it when the build finalizes makes further
// writes fail, and reads hand out copies.
package audit

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrSealed is returned when recording into a finalized trail
var ErrSealed = errors.New("audit trail is sealed")

// Entry is an immutable record of one factor's contribution to a score
type Entry struct {
	// TargetID is the movement or theme uid the score belongs to
	TargetID string

	// Factor is the factor name (for themes: "movement:<uid>")
	Factor string

	// Raw is the normalized factor value in [0,1]
	Raw float64

	// Weight is the fixed configured weight
	Weight float64

	// Contribution is Raw * Weight
	Contribution float64

	// BuildID ties the entry to the build run that produced it
	BuildID string
}

// Trail collects the audit entries of a single build
type Trail struct {
	buildID string
	entries map[string][]Entry
	sealed  bool
}

// NewTrail creates an empty trail for the given build
func NewTrail(buildID string) *Trail {
	return &Trail{
		buildID: buildID,
		entries: make(map[string][]Entry),
	}
}

// BuildID returns the build this trail belongs to
func (t *Trail) BuildID() string { return t.buildID }

// Record appends entries for a target. Entry order is preserved as the
// justification order returned by Entries. Fails once the trail is sealed.
func (t *Trail) Record(entries ...Entry) error {
	if t.sealed {
		return ErrSealed
	}
	for _, e := range entries {
		e.BuildID = t.buildID
		t.entries[e.TargetID] = append(t.entries[e.TargetID], e)
	}
	return nil
}

// Seal finalizes the trail. After sealing, Record always fails.
func (t *Trail) Seal() { t.sealed = true }

// Sealed reports whether the trail has been finalized
func (t *Trail) Sealed() bool { return t.sealed }

// Entries returns the ordered entries justifying a target's score.
// The returned slice is a copy; mutating it does not affect the trail.
func (t *Trail) Entries(targetID string) []Entry {
	src := t.entries[targetID]
	if len(src) == 0 {
		return nil
	}
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Targets returns all target ids with entries, sorted
func (t *Trail) Targets() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total entry count
func (t *Trail) Len() int {
	n := 0
	for _, es := range t.entries {
		n += len(es)
	}
	return n
}

// Verify checks that a target's recorded score is reproducible from its
// entries. This is the audit completeness guarantee: a score with no
// backing entries or a mismatched sum fails.
func (t *Trail) Verify(targetID string, score int) error {
	entries := t.entries[targetID]
	if len(entries) == 0 {
		return fmt.Errorf("no audit entries for target %s", targetID)
	}
	if got := ScoreFromEntries(entries); got != score {
		return fmt.Errorf("target %s: recorded score %d, entries reproduce %d", targetID, score, got)
	}
	return nil
}

// ScoreFromEntries recomputes a 0-100 score from weighted contributions
func ScoreFromEntries(entries []Entry) int {
	sum := 0.0
	for _, e := range entries {
		sum += e.Contribution
	}
	v := int(math.Round(100 * sum))
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}
