package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritzau/qconvert/pkg/conversion"
)

var (
	// ErrDuplicateEdge matches a *DuplicateEdgeError.
	ErrDuplicateEdge = errors.New("conversion already registered")

	// ErrEdgeNotFound matches an *EdgeNotFoundError.
	ErrEdgeNotFound = errors.New("conversion not registered")

	// ErrPathNotFound matches a *PathNotFoundError.
	ErrPathNotFound = errors.New("no conversion path")

	// ErrInvalidConversion is returned when an edge fails validation on insert.
	ErrInvalidConversion = errors.New("invalid conversion")

	// ErrUnknownNode matches a *PathNotFoundError whose source is not a node.
	ErrUnknownNode = errors.New("alias not in conversion graph")
)

// DuplicateEdgeError is returned by AddConversion when the ordered pair is
// already present and overwrite was not requested.
type DuplicateEdgeError struct {
	Source conversion.Alias
	Target conversion.Alias
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("conversion %s->%s already registered (use overwrite to replace it)", e.Source, e.Target)
}

func (e *DuplicateEdgeError) Is(target error) bool { return target == ErrDuplicateEdge }

// EdgeNotFoundError is returned by RemoveConversion for an absent edge.
type EdgeNotFoundError struct {
	Source conversion.Alias
	Target conversion.Alias
}

func (e *EdgeNotFoundError) Error() string {
	return fmt.Sprintf("conversion %s->%s not registered", e.Source, e.Target)
}

func (e *EdgeNotFoundError) Is(target error) bool { return target == ErrEdgeNotFound }

// PathNotFoundError is returned by FindPath. Reachable lists the aliases that
// can be reached from Source within MaxDepth hops, to show why Target is not
// among them.
type PathNotFoundError struct {
	Source    conversion.Alias
	Target    conversion.Alias
	MaxDepth  int // Negative means unbounded
	Reachable []conversion.Alias
	Unknown   bool // Source is not a node of the graph
}

func (e *PathNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no conversion path from %s to %s", e.Source, e.Target)
	if e.MaxDepth >= 0 {
		fmt.Fprintf(&b, " within %d hop(s)", e.MaxDepth)
	}
	if e.Unknown {
		fmt.Fprintf(&b, ": %s is not in the conversion graph", e.Source)
		return b.String()
	}
	if len(e.Reachable) == 0 {
		b.WriteString(": nothing is reachable from the source")
		return b.String()
	}
	names := make([]string, len(e.Reachable))
	for i, a := range e.Reachable {
		names[i] = string(a)
	}
	fmt.Fprintf(&b, "; reachable: %s", strings.Join(names, ", "))
	return b.String()
}

func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound || (e.Unknown && target == ErrUnknownNode)
}
