// Package device is the boundary between a program submitted by a caller and
// a target that accepts one representation only. A Device owns a scheme and
// adapts incoming programs to its alias before they go further.
package device

import (
	"fmt"

	"github.com/ritzau/qconvert/pkg/builtin"
	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/logging"
	"github.com/ritzau/qconvert/pkg/scheme"
	"github.com/ritzau/qconvert/pkg/transpiler"
)

// Device accepts programs in a single alias.
type Device struct {
	Name   string
	Alias  conversion.Alias
	Scheme *scheme.Scheme

	transpiler *transpiler.Transpiler
}

// New creates a device. A nil transpiler means builtin.Default(), and a nil
// scheme gets a default one over the transpiler's default graph.
func New(name string, alias conversion.Alias, t *transpiler.Transpiler, s *scheme.Scheme) *Device {
	if t == nil {
		t = builtin.Default()
	}
	if s == nil {
		s = scheme.New(scheme.WithGraph(t.DefaultGraph()))
	}
	return &Device{Name: name, Alias: alias, Scheme: s, transpiler: t}
}

// WithDirectOnly restricts the device to single, direct conversions.
func (d *Device) WithDirectOnly() *Device {
	if err := d.Scheme.UpdateValues(map[string]any{scheme.KeyMaxPathDepth: 1}); err != nil {
		// an int depth is always accepted
		panic(err)
	}
	return d
}

// Prepare returns program in the device alias. Conversion errors are
// returned unchanged.
func (d *Device) Prepare(program any) (any, error) {
	opts, err := transpiler.OptionsFromMap(d.Scheme.ToMap())
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", d.Name, err)
	}

	logging.Debug("preparing program", "device", d.Name, "alias", d.Alias)
	return d.transpiler.Transpile(program, d.Alias, opts...)
}

// Specialize adds a vendor conversion to a private copy of the scheme's
// graph. The graph the device was created with is left untouched.
func (d *Device) Specialize(c conversion.Conversion, overwrite bool) error {
	g := d.Scheme.Graph().Copy()
	if err := g.AddConversion(c, overwrite); err != nil {
		return fmt.Errorf("device %s: %w", d.Name, err)
	}
	return d.Scheme.UpdateValues(map[string]any{scheme.KeyConversionGraph: g})
}
