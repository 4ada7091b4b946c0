// Package stats aggregates engine outcomes into counts, cross tables and cost figures.
// Every function is pure: inputs are never modified.
package stats

import (
	"github.com/samber/lo"
)

// Outcome is the shape both draw and synthesis outcomes share.
type Outcome interface {
	GradeKey() string
	Pity() bool
}

// Cross-table column labels for the pity flag.
const (
	LabelNormal = "normal"
	LabelPity   = "pity"
)

// GradeCount is one row of GradeCounts.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// GradeCounts counts outcomes per grade key, in first-seen order.
func GradeCounts[T Outcome](outcomes []T) []GradeCount {
	counts := lo.CountValuesBy(outcomes, func(o T) string { return o.GradeKey() })
	order := lo.Uniq(lo.Map(outcomes, func(o T, _ int) string { return o.GradeKey() }))
	return lo.Map(order, func(g string, _ int) GradeCount {
		return GradeCount{Grade: g, Count: counts[g]}
	})
}

// CountOf returns the count for grade, or 0 when it never occurred.
func CountOf(counts []GradeCount, grade string) int {
	gc, _ := lo.Find(counts, func(c GradeCount) bool { return c.Grade == grade })
	return gc.Count
}

// PityCount counts outcomes where pity fired.
func PityCount[T Outcome](outcomes []T) int {
	return lo.CountBy(outcomes, func(o T) bool { return o.Pity() })
}

// PityLabel maps the pity flag onto its cross-table column.
func PityLabel(pity bool) string {
	if pity {
		return LabelPity
	}
	return LabelNormal
}

// CrossTable counts outcomes by (grade, pity label). Every grade that occurred
// has a cell for both labels; combinations that never occurred hold 0.
type CrossTable struct {
	Grades []string                  `json:"grades"`
	Labels []string                  `json:"labels"`
	Cells  map[string]map[string]int `json:"cells"`
}

// Get returns the count at (grade, label), 0 when absent.
func (c CrossTable) Get(grade, label string) int {
	return c.Cells[grade][label]
}

// CrossTabulate builds the grade x pity-label contingency table.
func CrossTabulate[T Outcome](outcomes []T) CrossTable {
	ct := CrossTable{
		Grades: lo.Uniq(lo.Map(outcomes, func(o T, _ int) string { return o.GradeKey() })),
		Labels: []string{LabelNormal, LabelPity},
		Cells:  make(map[string]map[string]int),
	}
	for _, g := range ct.Grades {
		ct.Cells[g] = map[string]int{LabelNormal: 0, LabelPity: 0}
	}
	for _, o := range outcomes {
		ct.Cells[o.GradeKey()][PityLabel(o.Pity())]++
	}
	return ct
}
