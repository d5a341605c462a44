// Package coverage decides whether every currently active judge expected
// to score a team has done so.
//
// Judges are mobile devices that drop networking mid-event, so expectation
// sets recorded at dispatch time go stale. All checks here are therefore
// taken against the intersection with the currently active judge set: a
// judge who is gone cannot block a team forever.
package coverage

import "sort"

// Report is the coverage of one dispatched team measured against the
// currently active judges.
type Report struct {
	// ActiveExpected is the stored expectation set narrowed to active judges.
	ActiveExpected []string
	// ActiveResponded is the stored responded set narrowed to active judges.
	ActiveResponded []string
	// Pending is ActiveExpected minus responded judges, i.e. who still owes
	// a score.
	Pending []string
}

// Complete reports whether no active judge still owes a score.
func (r Report) Complete() bool {
	return len(r.Pending) == 0
}

// Evaluate measures expected/responded sets against active judges.
// All returned slices are sorted and never nil.
func Evaluate(expected, responded, active []string) Report {
	activeSet := toSet(active)
	respondedSet := toSet(responded)

	r := Report{
		ActiveExpected:  []string{},
		ActiveResponded: []string{},
		Pending:         []string{},
	}
	for _, id := range dedupSorted(expected) {
		if _, ok := activeSet[id]; !ok {
			continue
		}
		r.ActiveExpected = append(r.ActiveExpected, id)
		if _, ok := respondedSet[id]; ok {
			r.ActiveResponded = append(r.ActiveResponded, id)
		} else {
			r.Pending = append(r.Pending, id)
		}
	}
	return r
}

// Contains reports whether sorted-or-not slice ids contains id.
func Contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns ids with id appended if absent. Adding an already-present
// id is a no-op, keeping responded-set updates idempotent.
func Add(ids []string, id string) []string {
	if Contains(ids, id) {
		return ids
	}
	out := append([]string{}, ids...)
	out = append(out, id)
	sort.Strings(out)
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func dedupSorted(ids []string) []string {
	set := toSet(ids)
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
