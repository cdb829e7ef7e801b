// Package cycles finds groups of aliases that convert into each other.
//
// A round trip (A -> ... -> B -> ... -> A) is not an error in a conversion
// graph, but every alias in such a group can reach every other one, which is
// worth knowing when deciding how far a depth bound should reach.
package cycles

import (
	"slices"
	"strings"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
)

// RoundTrip is a strongly connected group of aliases.
type RoundTrip struct {
	Aliases []conversion.Alias `json:"aliases"` // Sorted
}

func (r RoundTrip) String() string {
	names := make([]string, len(r.Aliases))
	for i, a := range r.Aliases {
		names[i] = string(a)
	}
	return strings.Join(names, " <-> ")
}

// FindRoundTrips returns every group of two or more mutually convertible
// aliases, ordered by their first alias.
func FindRoundTrips(cg *graph.ConversionGraph) []RoundTrip {
	view, alias := cg.Directed()
	sccs := newTarjan(view).components()

	trips := make([]RoundTrip, 0, len(sccs))
	for _, scc := range sccs {
		aliases := make([]conversion.Alias, 0, len(scc))
		for _, id := range scc {
			aliases = append(aliases, alias(id))
		}
		slices.Sort(aliases)
		trips = append(trips, RoundTrip{Aliases: aliases})
	}

	slices.SortFunc(trips, func(a, b RoundTrip) int {
		return strings.Compare(string(a.Aliases[0]), string(b.Aliases[0]))
	})
	return trips
}
