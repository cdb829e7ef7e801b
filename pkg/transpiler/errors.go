package transpiler

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ritzau/qconvert/pkg/conversion"
)

// ErrConversion matches every failure that happens after the source alias was
// determined: no path, a failing conversion, or a wrongly typed result.
var ErrConversion = errors.New("circuit conversion failed")

// ProgramTypeError reports that the alias of the input program could not be
// determined.
type ProgramTypeError struct {
	Type reflect.Type
	Err  error
}

func (e *ProgramTypeError) Error() string {
	return fmt.Sprintf("unsupported program type %v: %v", e.Type, e.Err)
}

func (e *ProgramTypeError) Unwrap() error { return e.Err }

// CircuitConversionError reports that no conversion path exists between the
// source and target aliases within the depth bound. Err is the
// *graph.PathNotFoundError from the search.
type CircuitConversionError struct {
	Source   conversion.Alias
	Target   conversion.Alias
	MaxDepth int
	Err      error
}

func (e *CircuitConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: %v", e.Source, e.Target, e.Err)
}

func (e *CircuitConversionError) Unwrap() error { return e.Err }

func (e *CircuitConversionError) Is(target error) bool { return target == ErrConversion }

// ConversionExecutionError reports that one conversion in the path failed.
// Step is the zero-based hop index; Err is the conversion's own error.
type ConversionExecutionError struct {
	Source conversion.Alias
	Target conversion.Alias
	Step   int
	Path   conversion.Path
	Err    error
}

func (e *ConversionExecutionError) Error() string {
	return fmt.Sprintf("conversion %s->%s (step %d of %d) failed: %v", e.Source, e.Target, e.Step+1, len(e.Path), e.Err)
}

func (e *ConversionExecutionError) Unwrap() error { return e.Err }

func (e *ConversionExecutionError) Is(target error) bool { return target == ErrConversion }

// ProgramConversionError reports that the final value does not have the type
// registered for the target alias.
type ProgramConversionError struct {
	Target conversion.Alias
	Want   reflect.Type
	Got    reflect.Type
}

func (e *ProgramConversionError) Error() string {
	return fmt.Sprintf("conversion to %s produced %v, expected %v", e.Target, e.Got, e.Want)
}

func (e *ProgramConversionError) Is(target error) bool { return target == ErrConversion }

// panicError carries a value recovered from a panicking conversion function.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
