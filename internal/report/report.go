// Package report renders simulation reports as plain text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/simulator"
	"github.com/xtding233/gacha-simulator/internal/stats"
)

// Renderer writes reports to w. Numbers are grouped for the configured locale.
type Renderer struct {
	w     io.Writer
	p     *message.Printer
	Quiet bool // skip the per-trial log
}

func NewRenderer(w io.Writer, tag language.Tag) *Renderer {
	return &Renderer{w: w, p: message.NewPrinter(tag)}
}

// Draws renders a draw run: trial log, grade counts, cross table, then cost.
func (r *Renderer) Draws(rep simulator.DrawReport) error {
	tw := r.table()
	r.header(tw, rep.Profile, rep.Version, rep.Seed)
	if !r.Quiet {
		for _, d := range rep.Outcomes {
			line := r.p.Sprintf("%d\t%s\t%s", d.Trial, d.Grade, d.Item)
			if d.PityTriggered {
				line += "\t[PITY]"
			}
			r.p.Fprintln(tw, line)
		}
		r.p.Fprintln(tw)
	}
	s := rep.Summary
	if rep.DegradedPity {
		r.p.Fprintf(tw, "warning: no %s entry in table, pity never forces a result\n", s.TopTier)
	}
	r.p.Fprintf(tw, "draws\t%d\tpity limit\t%d\n", s.Draws, rep.PityLimit)
	r.counts(tw, s.GradeCounts)
	r.cross(tw, s.Cross)
	r.p.Fprintf(tw, "\n%s results\t%d\n", s.TopTier, s.TopTierCount)
	r.p.Fprintf(tw, "pity triggered\t%d\n", s.PityCount)
	r.p.Fprintf(tw, "bundles\t%d\n", s.Cost.Bundles)
	r.p.Fprintf(tw, "total cost\t%s %s\n", r.amount(s.Cost.Total), s.Cost.Currency)
	if s.CostPerTopTier != nil {
		r.p.Fprintf(tw, "cost per %s\t%s %s\n", s.TopTier, r.amount(*s.CostPerTopTier), s.Cost.Currency)
	} else {
		r.p.Fprintf(tw, "cost per %s\tn/a\n", s.TopTier)
	}
	return tw.Flush()
}

// Synthesis renders a synthesis run.
func (r *Renderer) Synthesis(rep simulator.SynthesisReport) error {
	tw := r.table()
	r.header(tw, rep.Profile, rep.Version, rep.Seed)
	if !r.Quiet {
		for _, a := range rep.Outcomes {
			r.p.Fprintln(tw, SynthesisLine(a))
		}
		r.p.Fprintln(tw)
	}
	s := rep.Summary
	if rep.DegradedPity {
		r.p.Fprintf(tw, "warning: no rate for %s, only pity succeeds\n", rep.Params.StartGrade)
	}
	r.p.Fprintf(tw, "synthesis\t%s -> %s\trate\t%d%%\n", rep.Params.StartGrade, rep.Target, rep.Params.Rates.Rate(rep.Params.StartGrade))
	r.p.Fprintf(tw, "attempts\t%d\tpity\t%d\n", s.Attempts, rep.Params.PityThreshold)
	r.counts(tw, s.GradeCounts)
	r.cross(tw, s.Cross)
	r.p.Fprintf(tw, "\nsuccesses\t%d\t(%d by pity)\n", s.Successes, s.PitySuccesses)
	r.p.Fprintf(tw, "failures\t%d\n", s.Failures)
	r.p.Fprintf(tw, "success rate\t%.2f%%\n", s.SuccessRate)
	return tw.Flush()
}

// Batch renders the distribution of a Monte Carlo batch.
func (r *Renderer) Batch(rep simulator.BatchReport) error {
	tw := r.table()
	r.p.Fprintf(tw, "profile\t%s\tkind\t%s\n", rep.Profile, rep.Kind)
	r.p.Fprintf(tw, "runs\t%d\ttrials per run\t%d\tseed\t%s\n\n", rep.Result.Runs, rep.Trials, strconv.FormatUint(rep.Seed, 10))
	if rep.DegradedPity {
		r.p.Fprintln(tw, "warning: pity never forces a result in this profile")
	}
	hits := "top tier"
	if rep.Kind == simulator.KindSynthesis {
		hits = "successes"
	}
	r.p.Fprintln(tw, "metric\tmean\tstddev\tp50\tp90\tp99")
	for _, row := range []struct {
		name string
		s    gacha.Stats
	}{
		{hits, rep.Result.Hits},
		{"pity", rep.Result.Pity},
		{"first hit", rep.Result.First},
	} {
		r.p.Fprintf(tw, "%s\t%.2f\t%.2f\t%.1f\t%.1f\t%.1f\n", row.name, row.s.Mean, row.s.StdDev, row.s.P50, row.s.P90, row.s.P99)
	}
	r.p.Fprintf(tw, "\nruns without a hit\t%d\n", rep.Result.Misses)
	return tw.Flush()
}

// SynthesisLine formats one attempt as "NN: A -> S [success] (pity)" or "NN: A -> failed".
func SynthesisLine(a gacha.SynthesisOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d: %s -> ", a.Trial, a.FromGrade)
	if !a.Succeeded || a.ToGrade == nil {
		b.WriteString(gacha.FailedKey)
		return b.String()
	}
	b.WriteString(*a.ToGrade)
	b.WriteString(" [success]")
	if a.PityTriggered {
		b.WriteString(" (pity)")
	}
	return b.String()
}

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
}

func (r *Renderer) header(tw io.Writer, name, version string, seed *uint64) {
	r.p.Fprintf(tw, "profile\t%s", name)
	if version != "" {
		r.p.Fprintf(tw, "\tversion\t%s", version)
	}
	if seed != nil {
		// ungrouped so it can be pasted back into -seed
		r.p.Fprintf(tw, "\tseed\t%s", strconv.FormatUint(*seed, 10))
	}
	r.p.Fprint(tw, "\n\n")
}

func (r *Renderer) counts(tw io.Writer, counts []stats.GradeCount) {
	r.p.Fprintln(tw, "\ngrade\tcount")
	for _, c := range counts {
		r.p.Fprintf(tw, "%s\t%d\n", c.Grade, c.Count)
	}
}

func (r *Renderer) cross(tw io.Writer, ct stats.CrossTable) {
	r.p.Fprintf(tw, "\ngrade\t%s\n", strings.Join(ct.Labels, "\t"))
	for _, g := range ct.Grades {
		r.p.Fprint(tw, g)
		for _, l := range ct.Labels {
			r.p.Fprintf(tw, "\t%d", ct.Get(g, l))
		}
		r.p.Fprintln(tw)
	}
}

// amount prints whole values without decimals and everything else to two places.
func (r *Renderer) amount(d decimal.Decimal) string {
	if d.IsInteger() {
		return r.p.Sprintf("%d", d.IntPart())
	}
	return r.p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
