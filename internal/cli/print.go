package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chazu/horologe/pkg/escapement"
	"github.com/chazu/horologe/pkg/gearing"
	"github.com/chazu/horologe/pkg/geom"
	"github.com/chazu/horologe/pkg/graph"
	"github.com/chazu/horologe/pkg/train"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printCandidates lists up to limit trains, best first.
func printCandidates(w io.Writer, cands []train.Candidate, limit int) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tSTAGES\tRATIO\tERROR\tCOST")
	for i, c := range cands {
		if limit > 0 && i >= limit {
			break
		}
		stages := make([]string, len(c.Stages))
		for j, s := range c.Stages {
			stages[j] = s.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4g\t%.2f\n",
			i, strings.Join(stages, " "), c.TotalRatio, c.Error, c.WeightedCost)
	}
	if limit > 0 && len(cands) > limit {
		fmt.Fprintf(tw, "\t(%d more)\t\t\t\n", len(cands)-limit)
	}
	return tw.Flush()
}

func printEscapement(w io.Writer, g escapement.Geometry) error {
	entry, exit := g.PalletAngles()
	tw := newTable(w)
	fmt.Fprintf(tw, "family\t%s\n", g.Family())
	fmt.Fprintf(tw, "teeth\t%d\n", g.Teeth())
	fmt.Fprintf(tw, "diameter\t%.2f mm\n", g.Diameter())
	fmt.Fprintf(tw, "lift / drop / lock\t%.3f° / %.3f° / %.3f°\n",
		geom.RadToDeg(g.Lift()), geom.RadToDeg(g.Drop()), geom.RadToDeg(g.Lock()))
	fmt.Fprintf(tw, "anchor spans\t%.2f teeth\n", g.AnchorTeeth())
	fmt.Fprintf(tw, "anchor centre\t%.3f mm above the wheel\n", g.AnchorCentreDistance())
	fmt.Fprintf(tw, "pallet angles\t%.3f° / %.3f°\n", geom.RadToDeg(entry), geom.RadToDeg(exit))
	fmt.Fprintf(tw, "pallet error\t%.3f°\n", g.PalletError())
	fmt.Fprintf(tw, "largest anchor radius\t%.3f mm\n", g.LargestAnchorRadius())
	return tw.Flush()
}

func printProfile(w io.Writer, p gearing.Profile) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "profile\t%s\n", p)
	fmt.Fprintf(tw, "pitch diameter\t%.3f mm\n", p.PitchDiameter())
	fmt.Fprintf(tw, "addendum\t%.4f (radius %.4f)\n", p.AddendumFactor, p.AddendumRadiusFactor)
	fmt.Fprintf(tw, "dedendum\t%.4f\n", p.DedendumFactor)
	fmt.Fprintf(tw, "radius\t%.3f to %.3f mm\n", p.MinRadius(), p.MaxRadius())
	return tw.Flush()
}

// printMovement describes every movement in g, then any part outlines.
func printMovement(w io.Writer, res Result) error {
	g := res.Graph
	tw := newTable(w)
	for _, mv := range g.Movements() {
		md, _ := mv.Data.(graph.MovementData)
		fmt.Fprintf(tw, "movement\t%s\n", mv.Name)
		if md.Description != "" {
			fmt.Fprintf(tw, "\t%s\n", md.Description)
		}
		for _, c := range g.Children(mv) {
			switch d := c.Data.(type) {
			case graph.PendulumData:
				fmt.Fprintf(tw, "  pendulum\t%.4g s, %.4f m\n", d.Period, d.Length)
			case graph.EscapementData:
				fmt.Fprintf(tw, "  escapement\t%s, %d teeth, %.1f mm\n", d.Family, d.Teeth, d.Diameter)
			case graph.TrainData:
				stages := g.Stages(c)
				parts := make([]string, len(stages))
				for i, s := range stages {
					parts[i] = fmt.Sprintf("%d/%d", s.WheelTeeth, s.PinionTeeth)
				}
				fmt.Fprintf(tw, "  %s train\t%s ratio %.4f error %.4g\n",
					d.Role, strings.Join(parts, " "), d.TotalRatio, d.Error)
			}
		}
		if md.TargetTime > 0 {
			fmt.Fprintf(tw, "  timing\tescape wheel %.4g s, minute wheel %.4g s\n", md.EscapementTime, md.TargetTime)
		}
	}
	for _, p := range res.Parts {
		fmt.Fprintf(tw, "  part %s\t%d vertices, %.1f mm²\n", p.PartName, p.Vertices, p.Area)
	}
	return tw.Flush()
}

func printProblems(w io.Writer, res Result) {
	for _, e := range res.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
	for _, w2 := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", w2.Message)
	}
}
