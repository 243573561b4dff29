package matching

import (
	"fmt"
	"math"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// Request describes one matching problem. Exactly one of the impedance pair
// (ZInitial, ZTarget) or the reflection-coefficient pair (GammaInitial,
// GammaTarget) must be fully populated; mixing the two forms or supplying
// only half a pair is an input error. A request is consumed by exactly one
// solver invocation and never mutated.
type Request struct {
	Topology Topology

	ZInitial     *complex128
	ZTarget      *complex128
	GammaInitial *complex128
	GammaTarget  *complex128

	// Z0 is the reference impedance in ohms; zero selects the 50 ohm
	// default.
	Z0 float64

	// Frequency is the design frequency in hertz and must be positive.
	Frequency float64

	// Q is the quality factor for T and Pi networks. Zero or negative
	// selects the automatic minimum-feasible choice.
	Q float64

	// Spacing is the stub spacing in wavelengths for the double-stub tuner,
	// either 0.125 or 0.375. Zero selects 0.125.
	Spacing float64
}

// Cpx is a convenience for building the pointer fields of a Request from a
// literal.
func Cpx(re, im float64) *complex128 {
	z := complex(re, im)
	return &z
}

// Validate checks the request for input errors: the population rule on the
// impedance and reflection-coefficient pairs plus the scalar parameter
// ranges. Physical infeasibility is not an input error and is reported by the
// solvers as part of a normal result.
func (r Request) Validate() error {
	zCount := 0
	if r.ZInitial != nil {
		zCount++
	}
	if r.ZTarget != nil {
		zCount++
	}
	gCount := 0
	if r.GammaInitial != nil {
		gCount++
	}
	if r.GammaTarget != nil {
		gCount++
	}
	switch {
	case zCount == 2 && gCount == 0:
	case gCount == 2 && zCount == 0:
	case zCount == 0 && gCount == 0:
		return fmt.Errorf("no input given: populate either the impedance pair or the reflection-coefficient pair")
	case zCount > 0 && gCount > 0:
		return fmt.Errorf("mixed input: populate either the impedance pair or the reflection-coefficient pair, not both")
	default:
		return fmt.Errorf("partial input: both ends of the chosen pair must be populated")
	}

	if r.Z0 < 0 || math.IsNaN(r.Z0) || math.IsInf(r.Z0, 0) {
		return fmt.Errorf("reference impedance must be positive, got %g", r.Z0)
	}
	if r.Frequency <= 0 || math.IsNaN(r.Frequency) || math.IsInf(r.Frequency, 0) {
		return fmt.Errorf("frequency must be positive, got %g", r.Frequency)
	}
	if r.Q < 0 {
		return fmt.Errorf("Q must be positive, or zero for automatic selection, got %g", r.Q)
	}
	if r.Spacing != 0 &&
		math.Abs(r.Spacing-constants.SpacingEighthWave) > 1e-12 &&
		math.Abs(r.Spacing-constants.SpacingThreeEighthWave) > 1e-12 {
		return fmt.Errorf("stub spacing must be %g or %g wavelengths, got %g",
			constants.SpacingEighthWave, constants.SpacingThreeEighthWave, r.Spacing)
	}
	return nil
}

// state is the solver-internal normalized view of a request: impedances,
// admittances, and reflection coefficients at both ports in absolute and
// z0-normalized form.
type state struct {
	z0     float64
	freq   float64
	omega  float64
	lambda float64

	// Absolute quantities in ohms and the corresponding reflection
	// coefficients.
	Z1, Z2 complex128
	G1, G2 complex128

	// Normalized impedances and admittances.
	z1, z2 complex128
	y1, y2 complex128
}

// resolve validates a request and derives the normalized state, converting
// from the reflection-coefficient form when that is how the input arrived.
func resolve(req Request) (*state, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	z0 := req.Z0
	if z0 == 0 {
		z0 = constants.DefaultZ0
	}

	s := &state{
		z0:     z0,
		freq:   req.Frequency,
		omega:  2 * math.Pi * req.Frequency,
		lambda: constants.SpeedOfLight * constants.DefaultVelocityFactor / req.Frequency,
	}

	if req.ZInitial != nil {
		s.Z1 = *req.ZInitial
		s.Z2 = *req.ZTarget
		s.G1 = impedance.ZToGamma(s.Z1, z0)
		s.G2 = impedance.ZToGamma(s.Z2, z0)
	} else {
		s.G1 = *req.GammaInitial
		s.G2 = *req.GammaTarget
		s.Z1 = impedance.GammaToZ(s.G1, z0)
		s.Z2 = impedance.GammaToZ(s.G2, z0)
	}

	s.z1 = impedance.Normalize(s.Z1, z0)
	s.z2 = impedance.Normalize(s.Z2, z0)
	s.y1 = impedance.ZToY(s.z1)
	s.y2 = impedance.ZToY(s.z2)
	return s, nil
}

// newResult builds the result shell for a topology, echoing the resolved
// inputs and recording the shared normalization steps.
func (s *state) newResult(topology Topology) *Result {
	res := &Result{
		Topology:     topology,
		ZInitial:     s.Z1,
		ZTarget:      s.Z2,
		GammaInitial: s.G1,
		GammaTarget:  s.G2,
		Z0:           s.z0,
		Frequency:    s.freq,
	}
	res.addStep("Z_initial = %s ohm, Gamma_initial = %s", units.FormatComplex(s.Z1), units.FormatComplex(s.G1))
	res.addStep("Z_target = %s ohm, Gamma_target = %s", units.FormatComplex(s.Z2), units.FormatComplex(s.G2))
	res.addStep("normalized to Z0 = %g ohm: z1 = %s, z2 = %s, y1 = %s, y2 = %s",
		s.z0, units.FormatComplex(s.z1), units.FormatComplex(s.z2),
		units.FormatComplex(s.y1), units.FormatComplex(s.y2))
	return res
}

// directConnect reports whether the two ports are already so close that no
// network is needed, and builds the corresponding solution if so.
func (s *state) directConnect(topology Topology) (Solution, bool) {
	if !impedance.ApproxEqual(s.Z1, s.Z2, constants.DirectConnectToleranceOhms) {
		return Solution{}, false
	}
	sol := Solution{
		Topology: topology,
		Status:   StatusDirectConnect,
		Name:     "direct connection",
		ZOut:     s.Z1,
		Residual: cabs(s.Z1 - s.Z2),
	}
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("|Z_initial - Z_target| = %.4g ohm < %.2g ohm: ports already matched, no network required",
			cabs(s.Z1-s.Z2), constants.DirectConnectToleranceOhms))
	return sol, true
}

// infeasibleSolution builds the error-free "no network exists" solution with
// an explanatory trail.
func infeasibleSolution(topology Topology, reason string) Solution {
	return Solution{
		Topology: topology,
		Status:   StatusInfeasible,
		Name:     "infeasible",
		Steps:    []string{reason},
	}
}
