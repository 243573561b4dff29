package matching

import (
	"math"
	"strings"
	"testing"
)

const omegaGHz = 2 * math.Pi * 1e9

func TestFromReactance(t *testing.T) {
	tests := []struct {
		name      string
		x         float64
		kind      ComponentKind
		value     float64
		omitted   bool
		placement Placement
	}{
		{name: "Positive is an inductor", x: 40, kind: KindInductor, value: 40 / omegaGHz, placement: PlacementSeries},
		{name: "Negative is a capacitor", x: -40, kind: KindCapacitor, value: 1 / (40 * omegaGHz), placement: PlacementSeries},
		{name: "Shunt placement carried", x: 15, kind: KindInductor, value: 15 / omegaGHz, placement: PlacementShunt},
		{name: "Below epsilon omitted", x: 5e-10, omitted: true, placement: PlacementSeries},
		{name: "Negative below epsilon omitted", x: -5e-10, omitted: true, placement: PlacementSeries},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := FromReactance(tt.x, omegaGHz, tt.placement)
			if tt.omitted {
				if ok {
					t.Fatalf("FromReactance(%g) produced a component below the omission epsilon", tt.x)
				}
				return
			}
			if !ok {
				t.Fatalf("FromReactance(%g) omitted a real component", tt.x)
			}
			if c.Kind != tt.kind {
				t.Errorf("kind = %v, expected %v", c.Kind, tt.kind)
			}
			if c.Placement != tt.placement {
				t.Errorf("placement = %v, expected %v", c.Placement, tt.placement)
			}
			if math.Abs(c.Value-tt.value) > tt.value*1e-12 {
				t.Errorf("value = %g, expected %g", c.Value, tt.value)
			}
			if c.Reactance != tt.x {
				t.Errorf("reactance = %g, expected %g", c.Reactance, tt.x)
			}
		})
	}
}

func TestFromSusceptance(t *testing.T) {
	tests := []struct {
		name    string
		b       float64
		kind    ComponentKind
		value   float64
		omitted bool
	}{
		{name: "Positive is a capacitor", b: 0.01, kind: KindCapacitor, value: 0.01 / omegaGHz},
		{name: "Negative is an inductor", b: -0.02, kind: KindInductor, value: 1 / (0.02 * omegaGHz)},
		{name: "Below epsilon omitted", b: 5e-10, omitted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := FromSusceptance(tt.b, omegaGHz, PlacementShunt)
			if tt.omitted {
				if ok {
					t.Fatalf("FromSusceptance(%g) produced a component below the omission epsilon", tt.b)
				}
				return
			}
			if !ok {
				t.Fatalf("FromSusceptance(%g) omitted a real component", tt.b)
			}
			if c.Kind != tt.kind {
				t.Errorf("kind = %v, expected %v", c.Kind, tt.kind)
			}
			if math.Abs(c.Value-tt.value) > tt.value*1e-12 {
				t.Errorf("value = %g, expected %g", c.Value, tt.value)
			}
			// The stored reactance must reproduce the requested susceptance.
			if math.Abs(c.Susceptance()-tt.b) > 1e-12 {
				t.Errorf("Susceptance() = %g, expected %g", c.Susceptance(), tt.b)
			}
		})
	}
}

func TestComponentSusceptanceZeroValue(t *testing.T) {
	var c Component
	if c.Susceptance() != 0 {
		t.Errorf("zero-value component reports susceptance %g", c.Susceptance())
	}
}

func TestClassifyTwoElement(t *testing.T) {
	ind := Component{Kind: KindInductor}
	cap := Component{Kind: KindCapacitor}
	tests := []struct {
		name     string
		series   Component
		shunt    Component
		seriesOK bool
		shuntOK  bool
		expected FilterClass
	}{
		{name: "Series L shunt C", series: ind, shunt: cap, seriesOK: true, shuntOK: true, expected: FilterLowPass},
		{name: "Series C shunt L", series: cap, shunt: ind, seriesOK: true, shuntOK: true, expected: FilterHighPass},
		{name: "Series L shunt L", series: ind, shunt: ind, seriesOK: true, shuntOK: true, expected: FilterBandStop},
		{name: "Series C shunt C", series: cap, shunt: cap, seriesOK: true, shuntOK: true, expected: FilterBandPass},
		{name: "Series omitted", series: ind, shunt: cap, seriesOK: false, shuntOK: true, expected: FilterNone},
		{name: "Shunt omitted", series: ind, shunt: cap, seriesOK: true, shuntOK: false, expected: FilterNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTwoElement(tt.series, tt.shunt, tt.seriesOK, tt.shuntOK)
			if got != tt.expected {
				t.Errorf("classifyTwoElement() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestDescribeComponent(t *testing.T) {
	c, ok := FromReactance(40, omegaGHz, PlacementSeries)
	if !ok {
		t.Fatalf("FromReactance(40) omitted")
	}
	desc := c.Describe()
	for _, want := range []string{"series inductor", "6.366 nH", "+40 ohm"} {
		if !strings.Contains(desc, want) {
			t.Errorf("Describe() = %q, expected it to contain %q", desc, want)
		}
	}
}
