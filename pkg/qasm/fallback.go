package qasm

import (
	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/registry"
)

const (
	Alias2 conversion.Alias = "qasm2"
	Alias3 conversion.Alias = "qasm3"
)

// HeaderFallback recognises plain strings (and []byte) that start with an
// OPENQASM 2 or 3 header. It only answers with aliases present in the
// registry.
func HeaderFallback() registry.Fallback {
	return registry.FallbackFunc{
		Label: "qasm-header",
		Fn: func(program any, reg *registry.Registry) (conversion.Alias, bool) {
			var text string
			switch p := program.(type) {
			case string:
				text = p
			case []byte:
				text = string(p)
			default:
				return "", false
			}

			version, ok := Version(text)
			if !ok {
				return "", false
			}

			var alias conversion.Alias
			switch version {
			case 2:
				alias = Alias2
			case 3:
				alias = Alias3
			default:
				return "", false
			}
			return alias, reg.IsRegistered(alias)
		},
	}
}
