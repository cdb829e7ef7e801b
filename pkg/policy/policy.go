// Package policy loads a conversion policy from TOML and applies it to a
// conversion graph. A policy can reweight edges, disable them, declare extra
// aliases and bound the path depth:
//
//	nodes = ["braket"]
//	max_path_depth = 2
//
//	[[weights]]
//	source = "qasm2"
//	target = "qasm3"
//	weight = 3.5
//
//	[[disabled]]
//	source = "circuit"
//	target = "qasm2"
package policy

import (
	"fmt"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/graph"
	"github.com/ritzau/qconvert/pkg/logging"
	"github.com/ritzau/qconvert/pkg/scheme"
)

// Weight overrides the weight of one edge.
type Weight struct {
	Source string  `koanf:"source"`
	Target string  `koanf:"target"`
	Weight float64 `koanf:"weight"`
}

// Edge names one edge.
type Edge struct {
	Source string `koanf:"source"`
	Target string `koanf:"target"`
}

// Policy is the parsed policy file.
type Policy struct {
	Nodes        []string `koanf:"nodes"`
	Weights      []Weight `koanf:"weights"`
	Disabled     []Edge   `koanf:"disabled"`
	MaxPathDepth *int     `koanf:"max_path_depth"`
}

// Load reads a policy file.
func Load(path string) (*Policy, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load policy %s: %w", path, err)
	}

	var p Policy
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	logging.Debug("loaded policy",
		"path", path,
		"nodes", len(p.Nodes),
		"weights", len(p.Weights),
		"disabled", len(p.Disabled),
	)
	return &p, nil
}

// Validate checks the policy without a graph.
func (p *Policy) Validate() error {
	for _, n := range p.Nodes {
		if n == "" {
			return fmt.Errorf("nodes: %w", conversion.ErrEmptyAlias)
		}
	}
	for i, w := range p.Weights {
		if w.Source == "" || w.Target == "" {
			return fmt.Errorf("weights[%d]: %w", i, conversion.ErrEmptyAlias)
		}
		if w.Weight < 0 {
			return fmt.Errorf("weights[%d]: %w: %v", i, conversion.ErrInvalidWeight, w.Weight)
		}
	}
	for i, d := range p.Disabled {
		if d.Source == "" || d.Target == "" {
			return fmt.Errorf("disabled[%d]: %w", i, conversion.ErrEmptyAlias)
		}
	}
	return nil
}

// Apply returns a copy of g with the policy applied. g itself is not
// modified. Weight and disable rules must name existing edges.
func (p *Policy) Apply(g *graph.ConversionGraph) (*graph.ConversionGraph, error) {
	out := g.Copy()

	for _, n := range p.Nodes {
		if err := out.AddNode(conversion.Alias(n)); err != nil {
			return nil, fmt.Errorf("node %q: %w", n, err)
		}
	}

	for _, w := range p.Weights {
		source, target := conversion.Alias(w.Source), conversion.Alias(w.Target)
		c, ok := out.Edge(source, target)
		if !ok {
			return nil, &graph.EdgeNotFoundError{Source: source, Target: target}
		}
		c.Weight = w.Weight
		if err := out.AddConversion(c, true); err != nil {
			return nil, err
		}
	}

	for _, d := range p.Disabled {
		if err := out.RemoveConversion(conversion.Alias(d.Source), conversion.Alias(d.Target)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyScheme replaces the scheme's graph with the policy applied to it and
// sets the depth bound when the policy has one.
func (p *Policy) ApplyScheme(s *scheme.Scheme) error {
	g, err := p.Apply(s.Graph())
	if err != nil {
		return err
	}

	values := map[string]any{scheme.KeyConversionGraph: g}
	if p.MaxPathDepth != nil {
		values[scheme.KeyMaxPathDepth] = *p.MaxPathDepth
	}
	return s.UpdateValues(values)
}
