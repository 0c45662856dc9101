// Package report renders scan results for people: per-invader statistics,
// an interactive HTML chart and a static PNG plot of the cleaned map.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/invader.radar/internal/scan"
)

// InvaderSummary aggregates the detections of one known invader.
type InvaderSummary struct {
	InvaderIndex      int     `json:"invader_index"`
	Count             int     `json:"count"`
	MeanProbability   float64 `json:"mean_probability"`
	StdDevProbability float64 `json:"stddev_probability"`
	MinProbability    float64 `json:"min_probability"`
	MaxProbability    float64 `json:"max_probability"`
}

// Summarize returns one summary per invader index in [0, invaderCount), in
// index order. Invaders without detections get zero statistics. Detections
// with an index outside that range are ignored.
func Summarize(invaderCount int, detections []scan.Detection) []InvaderSummary {
	if invaderCount < 0 {
		invaderCount = 0
	}
	probs := make([][]float64, invaderCount)
	for _, d := range detections {
		if d.InvaderIndex < 0 || d.InvaderIndex >= invaderCount {
			continue
		}
		probs[d.InvaderIndex] = append(probs[d.InvaderIndex], d.Probability)
	}

	out := make([]InvaderSummary, invaderCount)
	for i, p := range probs {
		s := InvaderSummary{InvaderIndex: i, Count: len(p)}
		if len(p) > 0 {
			s.MeanProbability = stat.Mean(p, nil)
			s.MinProbability, s.MaxProbability = p[0], p[0]
			for _, v := range p[1:] {
				s.MinProbability = min(s.MinProbability, v)
				s.MaxProbability = max(s.MaxProbability, v)
			}
		}
		// The sample standard deviation is undefined for fewer than two values.
		if len(p) > 1 {
			s.StdDevProbability = stat.StdDev(p, nil)
		}
		out[i] = s
	}
	return out
}

// WriteSummary prints summaries as an aligned text table.
func WriteSummary(w io.Writer, summaries []InvaderSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVADER\tDETECTIONS\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\t%.3f\t%.3f\n",
			s.InvaderIndex, s.Count, s.MeanProbability, s.StdDevProbability,
			s.MinProbability, s.MaxProbability)
	}
	return tw.Flush()
}
