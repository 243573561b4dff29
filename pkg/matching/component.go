package matching

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

func cabs(z complex128) float64 {
	return cmplx.Abs(z)
}

// FromReactance realizes a reactance X in ohms at angular frequency omega as
// a physical component: X > 0 becomes an inductor L = X/omega, X < 0 a
// capacitor C = -1/(X*omega). The second return is false when |X| is below
// the omission epsilon, meaning no component belongs at this position.
func FromReactance(x, omega float64, placement Placement) (Component, bool) {
	if math.Abs(x) < constants.ComponentEpsilon {
		return Component{}, false
	}
	if x > 0 {
		return Component{
			Kind:      KindInductor,
			Placement: placement,
			Value:     x / omega,
			Reactance: x,
		}, true
	}
	return Component{
		Kind:      KindCapacitor,
		Placement: placement,
		Value:     -1 / (x * omega),
		Reactance: x,
	}, true
}

// FromSusceptance realizes a susceptance B in siemens at angular frequency
// omega: B > 0 becomes a capacitor C = B/omega, B < 0 an inductor
// L = -1/(B*omega). The second return is false when |B| is below the omission
// epsilon.
func FromSusceptance(b, omega float64, placement Placement) (Component, bool) {
	if math.Abs(b) < constants.ComponentEpsilon {
		return Component{}, false
	}
	if b > 0 {
		return Component{
			Kind:      KindCapacitor,
			Placement: placement,
			Value:     b / omega,
			Reactance: -1 / b,
		}, true
	}
	return Component{
		Kind:      KindInductor,
		Placement: placement,
		Value:     -1 / (b * omega),
		Reactance: -1 / b,
	}, true
}

// classifyTwoElement names the frequency response of a series+shunt element
// pair. Networks where a position collapsed to nothing are left unclassified.
func classifyTwoElement(series, shunt Component, seriesOK, shuntOK bool) FilterClass {
	if !seriesOK || !shuntOK {
		return FilterNone
	}
	switch {
	case series.Kind == KindInductor && shunt.Kind == KindCapacitor:
		return FilterLowPass
	case series.Kind == KindCapacitor && shunt.Kind == KindInductor:
		return FilterHighPass
	case series.Kind == KindInductor && shunt.Kind == KindInductor:
		return FilterBandStop
	default:
		return FilterBandPass
	}
}

// Describe renders the component for derivation steps and reports. Series
// elements are annotated with their reactance, shunt elements with their
// susceptance.
func (c Component) Describe() string {
	unit := "H"
	if c.Kind == KindCapacitor {
		unit = "F"
	}
	if c.Placement == PlacementShunt {
		return fmt.Sprintf("%s %s = %s (B = %+.4g S)",
			c.Placement, c.Kind, units.FormatValue(c.Value, unit), c.Susceptance())
	}
	return fmt.Sprintf("%s %s = %s (X = %+.4g ohm)",
		c.Placement, c.Kind, units.FormatValue(c.Value, unit), c.Reactance)
}

// Describe renders the line section for derivation steps and reports.
func (l Line) Describe() string {
	switch l.Kind {
	case LineSeries:
		return fmt.Sprintf("series line, l = %.6f lambda (%.2f mm) at Z0 = %g ohm",
			l.LengthLambda, l.LengthMM, l.Z0)
	default:
		prefix := ""
		suffix := ""
		if l.Balanced {
			prefix = "balanced pair of "
			suffix = " each"
		}
		return fmt.Sprintf("%s%s, l = %.6f lambda (%.2f mm), b = %+.6g%s",
			prefix, l.Kind, l.LengthLambda, l.LengthMM, l.Susceptance, suffix)
	}
}
