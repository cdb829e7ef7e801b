// Package output renders graphs and paths for the terminal.
package output

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/model"
)

var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// PrintGraph lists every alias with its outgoing conversions.
func PrintGraph(w io.Writer, g *model.Graph, trips []model.RoundTrip) {
	bold.Fprintln(w, "Conversion Graph")
	bold.Fprintln(w, "================")
	fmt.Fprintf(w, "Aliases: %d\n", len(g.Nodes))
	fmt.Fprintf(w, "Conversions: %d\n", len(g.Edges))
	fmt.Fprintln(w)

	outgoing := make(map[string][]*model.Edge)
	for _, e := range g.Edges {
		outgoing[e.Source] = append(outgoing[e.Source], e)
	}

	for _, id := range slices.Sorted(maps.Keys(g.Nodes)) {
		node := g.Nodes[id]
		if node.Type == model.NodeTypeRegistered {
			green.Fprintf(w, "%s", id)
			fmt.Fprintf(w, " (%v)\n", node.Metadata["native_type"])
		} else {
			yellow.Fprintf(w, "%s", id)
			fmt.Fprintln(w, " (no registered type)")
		}
		for _, e := range outgoing[id] {
			fmt.Fprintf(w, "  -> ")
			cyan.Fprintf(w, "%s", e.Target)
			fmt.Fprintf(w, "  weight=%s  %s\n", formatWeight(e.Weight), e.Name)
		}
	}

	if len(trips) > 0 {
		fmt.Fprintln(w)
		bold.Fprintln(w, "Round trips:")
		for _, rt := range trips {
			fmt.Fprintf(w, "  %s\n", strings.Join(rt.Aliases, " <-> "))
		}
	}
}

// PrintPath shows a resolved path hop by hop.
func PrintPath(w io.Writer, p *model.Path) {
	if p.Hops == 0 {
		green.Fprintf(w, "%s is already %s (identity, no conversion)\n", p.Source, p.Target)
		return
	}

	bold.Fprintf(w, "%s -> %s", p.Source, p.Target)
	fmt.Fprintf(w, "  (%d hop(s), weight %s)\n", p.Hops, formatWeight(p.Weight))
	for i, step := range p.Steps {
		fmt.Fprintf(w, "  %d. %s -> ", i+1, step.Source)
		cyan.Fprintf(w, "%s", step.Target)
		fmt.Fprintf(w, "  [%s]\n", step.Name)
	}
}

// PrintError explains a resolver error. A missing path lists what is
// reachable instead.
func PrintError(w io.Writer, err error) {
	red.Fprintf(w, "Error: %v\n", err)

	var notFound *graph.PathNotFoundError
	if errors.As(err, &notFound) && !notFound.Unknown && len(notFound.Reachable) > 0 {
		yellow.Fprintf(w, "Reachable from %s", notFound.Source)
		if notFound.MaxDepth >= 0 {
			yellow.Fprintf(w, " within %d hop(s)", notFound.MaxDepth)
		}
		yellow.Fprintln(w, ":")
		for _, a := range notFound.Reachable {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
