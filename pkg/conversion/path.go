package conversion

import (
	"fmt"
	"strings"
)

// Path is an ordered sequence of conversions whose endpoints chain.
// An empty path is the identity.
type Path []Conversion

// Validate reports an error if consecutive conversions do not chain.
func (p Path) Validate() error {
	for i := 1; i < len(p); i++ {
		if p[i-1].Target != p[i].Source {
			return fmt.Errorf("path breaks at hop %d: %s does not continue %s", i, p[i].Key(), p[i-1].Key())
		}
	}
	return nil
}

// Aliases returns every alias visited, including both endpoints.
// The identity path returns nil.
func (p Path) Aliases() []Alias {
	if len(p) == 0 {
		return nil
	}
	aliases := make([]Alias, 0, len(p)+1)
	aliases = append(aliases, p[0].Source)
	for _, c := range p {
		aliases = append(aliases, c.Target)
	}
	return aliases
}

// Weight is the sum of the conversion weights.
func (p Path) Weight() float64 {
	var total float64
	for _, c := range p {
		total += c.Weight
	}
	return total
}

// Keys returns the endpoint pair of every hop.
func (p Path) Keys() []Key {
	keys := make([]Key, len(p))
	for i, c := range p {
		keys[i] = c.Key()
	}
	return keys
}

func (p Path) String() string {
	if len(p) == 0 {
		return "(identity)"
	}
	parts := make([]string, 0, len(p)+1)
	for _, a := range p.Aliases() {
		parts = append(parts, string(a))
	}
	return strings.Join(parts, " -> ")
}
