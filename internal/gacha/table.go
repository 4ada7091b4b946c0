package gacha

import (
	"sort"

	"github.com/samber/lo"
)

// TopTier is the grade pity guarantees unless a profile names another one.
const TopTier = "S"

// Entry is one row of a normalized probability table.
// Weight and Cumulative are percentages.
type Entry struct {
	Grade      string  `json:"grade" yaml:"grade"`
	Label      string  `json:"label" yaml:"label"`
	Weight     float64 `json:"weight" yaml:"weight"`
	Cumulative float64 `json:"cumulative" yaml:"cumulative"`
}

// Table is sorted by descending Weight with a running-sum Cumulative column.
type Table []Entry

// RawEntry is a table row before normalization, as it appears in a profile.
type RawEntry struct {
	Grade  string  `json:"grade" yaml:"grade"`
	Label  string  `json:"label" yaml:"label"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// NewTable normalizes raw rows into a Table:
// - weights that are all <= 1 are read as fractions and scaled to percentages
// - rows are stable-sorted by descending weight
// - Cumulative is the running sum over that order
// The result is validated before it is returned.
func NewTable(raw []RawEntry) (Table, error) {
	rows := append([]RawEntry(nil), raw...)
	if len(rows) > 0 && lo.MaxBy(rows, func(a, b RawEntry) bool { return a.Weight > b.Weight }).Weight <= 1 {
		for i := range rows {
			rows[i].Weight *= 100
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Weight > rows[j].Weight })

	t := make(Table, len(rows))
	cum := 0.0
	for i, r := range rows {
		cum += r.Weight
		t[i] = Entry{Grade: r.Grade, Label: r.Label, Weight: r.Weight, Cumulative: cum}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Pool returns the entries of the given grade, in table order.
func (t Table) Pool(grade string) []Entry {
	return lo.Filter(t, func(e Entry, _ int) bool { return e.Grade == grade })
}

// Has reports whether any entry carries grade.
func (t Table) Has(grade string) bool {
	return lo.ContainsBy(t, func(e Entry) bool { return e.Grade == grade })
}

// Grades returns the distinct grades in table order.
func (t Table) Grades() []string {
	return lo.Uniq(lo.Map(t, func(e Entry, _ int) string { return e.Grade }))
}

// pick selects the first entry whose cumulative bound exceeds r (inverse CDF).
// r at or past the last bound resolves to the last entry.
func (t Table) pick(r float64) Entry {
	for _, e := range t {
		if e.Cumulative > r {
			return e
		}
	}
	return t[len(t)-1]
}
