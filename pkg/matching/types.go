// Package matching implements lossless impedance-matching network synthesis:
// L, T, and Pi reactive networks plus single, balanced, and double shunt-stub
// tuners. Each solver is a closed-form procedure over the complex
// impedance/admittance/reflection-coefficient algebra that enumerates the
// candidate networks, converts them to physical component values, and
// re-simulates each candidate against the target to record a residual.
package matching

import (
	"fmt"
	"strings"
)

// Topology selects which solver a request is routed to.
type Topology string

const (
	TopologyL            Topology = "L"
	TopologyT            Topology = "T"
	TopologyPi           Topology = "Pi"
	TopologySingleStub   Topology = "single-stub"
	TopologyBalancedStub Topology = "balanced-stub"
	TopologyDoubleStub   Topology = "double-stub"
)

// ParseTopology maps a user-facing topology name onto a Topology. Matching is
// case-insensitive and tolerates the common spelling variants.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "l-network", "lnetwork":
		return TopologyL, nil
	case "t", "t-network", "tnetwork":
		return TopologyT, nil
	case "pi", "pi-network", "pinetwork":
		return TopologyPi, nil
	case "single-stub", "single_stub", "singlestub", "stub":
		return TopologySingleStub, nil
	case "balanced-stub", "balanced_stub", "balancedstub":
		return TopologyBalancedStub, nil
	case "double-stub", "double_stub", "doublestub":
		return TopologyDoubleStub, nil
	default:
		return "", fmt.Errorf("unknown topology %q", s)
	}
}

// Status tags a Solution so callers can switch on what kind of outcome it is
// instead of inferring state from empty component lists.
type Status int

const (
	// StatusNormal is a realizable matching network.
	StatusNormal Status = iota
	// StatusDirectConnect means source and target already match; no network
	// is needed.
	StatusDirectConnect
	// StatusInfeasible means no lossless network of the requested topology
	// exists for this input. The solution carries no components, only the
	// derivation steps explaining why.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusDirectConnect:
		return "direct-connect"
	case StatusInfeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// FilterClass is the frequency-response classification of a two-element
// network, derived from which element kinds ended up in the series and shunt
// positions.
type FilterClass string

const (
	FilterNone     FilterClass = ""
	FilterLowPass  FilterClass = "Low-pass"
	FilterHighPass FilterClass = "High-pass"
	FilterBandPass FilterClass = "Band-pass"
	FilterBandStop FilterClass = "Band-stop"
)

// ComponentKind discriminates the tagged union of realizable reactive parts.
type ComponentKind int

const (
	KindInductor ComponentKind = iota
	KindCapacitor
)

func (k ComponentKind) String() string {
	switch k {
	case KindInductor:
		return "inductor"
	case KindCapacitor:
		return "capacitor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Placement says how a component is inserted into the network.
type Placement int

const (
	PlacementSeries Placement = iota
	PlacementShunt
)

func (p Placement) String() string {
	switch p {
	case PlacementSeries:
		return "series"
	case PlacementShunt:
		return "shunt"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// Component is one reactive element of a solution. Value is in henries for
// inductors and farads for capacitors. Reactance is the element's own series
// reactance in ohms at the design frequency (positive for inductors, negative
// for capacitors).
type Component struct {
	Kind      ComponentKind `json:"kind"`
	Placement Placement     `json:"placement"`
	Value     float64       `json:"value"`
	Reactance float64       `json:"reactanceOhm"`
}

// Susceptance returns the element's shunt susceptance in siemens at the
// design frequency.
func (c Component) Susceptance() float64 {
	if c.Reactance == 0 {
		return 0
	}
	return -1 / c.Reactance
}

// LineKind discriminates transmission-line sections within a solution.
type LineKind int

const (
	// LineSeries is a cascade line section between source and target.
	LineSeries LineKind = iota
	// StubShort is a short-circuit terminated shunt stub.
	StubShort
	// StubOpen is an open-circuit terminated shunt stub.
	StubOpen
)

func (k LineKind) String() string {
	switch k {
	case LineSeries:
		return "line"
	case StubShort:
		return "short-circuited stub"
	case StubOpen:
		return "open-circuited stub"
	default:
		return fmt.Sprintf("linekind(%d)", int(k))
	}
}

// Line is one transmission-line section: either a cascade line or a shunt
// stub. Lengths are electrical (fraction of a wavelength, in [0, 0.5)) and
// physical (millimeters at the design frequency, free-space velocity).
// Susceptance is the normalized input susceptance a stub presents; it is zero
// for cascade lines. Balanced marks a stub realized as two identical parallel
// stubs, one per leg; the length and susceptance then describe each stub of
// the pair.
type Line struct {
	Kind         LineKind `json:"kind"`
	LengthLambda float64  `json:"lengthLambda"`
	LengthMM     float64  `json:"lengthMM"`
	Z0           float64  `json:"z0"`
	Susceptance  float64  `json:"susceptance,omitempty"`
	Balanced     bool     `json:"balanced,omitempty"`
}

// SegmentKind classifies a Smith-chart path segment.
type SegmentKind string

const (
	SegmentSeries SegmentKind = "series"
	SegmentShunt  SegmentKind = "shunt"
	SegmentLine   SegmentKind = "transmission-line"
)

// PathSegment is one leg of a solution's trajectory in the reflection
// coefficient plane, for external visualization.
type PathSegment struct {
	From  complex128
	To    complex128
	Kind  SegmentKind
	Label string
}

// Solution is one candidate matching network. Solutions are created by a
// solver call and never mutated afterwards.
type Solution struct {
	Topology    Topology
	Status      Status
	Name        string
	FilterClass FilterClass
	// Q is the working quality factor for T and Pi networks, zero otherwise.
	Q          float64
	Components []Component
	Lines      []Line
	Path       []PathSegment
	Steps      []string
	// ZOut is the impedance obtained by recomposing the network from the
	// source through every element. Residual is |ZOut - ZTarget| in ohms; it
	// is diagnostic only and never used to reject a solution.
	ZOut     complex128
	Residual float64
}

// Result aggregates the outcome of one solver invocation. An empty Solutions
// list is a valid outcome (nothing feasible) and is distinct from an error.
type Result struct {
	Topology     Topology
	ZInitial     complex128
	ZTarget      complex128
	GammaInitial complex128
	GammaTarget  complex128
	Z0           float64
	Frequency    float64
	// Steps holds the derivation records shared by every solution, such as
	// input normalization.
	Steps     []string
	Solutions []Solution
}

// Feasible reports whether the result contains at least one realizable
// solution (normal or direct-connect).
func (r *Result) Feasible() bool {
	for _, s := range r.Solutions {
		if s.Status != StatusInfeasible {
			return true
		}
	}
	return false
}

// addStep appends a common derivation record.
func (r *Result) addStep(format string, args ...interface{}) {
	r.Steps = append(r.Steps, fmt.Sprintf(format, args...))
}
