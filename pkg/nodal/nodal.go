// Package nodal re-simulates matching networks by modified nodal analysis
// over a sparse complex admittance matrix. It is an independent cross-check
// on the closed-form solvers: components are stamped from their physical
// henry/farad values and transmission lines from their electrical lengths, so
// a wrong unit conversion shows up as a residual even when the synthesis
// algebra was self-consistent.
package nodal

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/edp1096/sparse"
	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// Check is the nodal verdict on one solution: the input impedance seen at the
// output port with the source impedance terminating the input port, and its
// distance from the target.
type Check struct {
	Name     string
	Status   matching.Status
	ZOut     complex128
	Residual float64
	// Skipped marks solutions that have no network to simulate.
	Skipped bool
}

// MarshalJSON renders the simulated impedance in the same j-notation the rest
// of the module emits.
func (c Check) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string          `json:"name"`
		Status   matching.Status `json:"status"`
		ZOut     string          `json:"zOut"`
		Residual float64         `json:"residualOhm"`
		Skipped  bool            `json:"skipped,omitempty"`
	}{c.Name, c.Status, units.FormatComplex(c.ZOut), c.Residual, c.Skipped})
}

// VerifyResult re-simulates every realizable solution of a result and
// reports one Check per solution, in the same order. Infeasible entries are
// skipped; direct connections reduce to the source impedance itself.
func VerifyResult(logger *zap.Logger, res *matching.Result) ([]Check, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	checks := make([]Check, 0, len(res.Solutions))
	for _, sol := range res.Solutions {
		check := Check{Name: sol.Name, Status: sol.Status}
		switch sol.Status {
		case matching.StatusInfeasible:
			check.Skipped = true
		case matching.StatusDirectConnect:
			check.ZOut = res.ZInitial
			check.Residual = cabs(res.ZInitial - res.ZTarget)
		default:
			z, err := InputImpedance(logger, sol, res.ZInitial, res.Frequency)
			if err != nil {
				return nil, fmt.Errorf("nodal check of %q: %w", sol.Name, err)
			}
			check.ZOut = z
			check.Residual = cabs(z - res.ZTarget)
		}
		checks = append(checks, check)
		logger.Debug("nodal check",
			zap.String("op", "nodal.VerifyResult"),
			zap.String("solution", check.Name),
			zap.Float64("residual", check.Residual),
			zap.Bool("skipped", check.Skipped),
		)
	}
	return checks, nil
}

// WorstResidual returns the largest residual among the checks that were
// simulated.
func WorstResidual(checks []Check) float64 {
	worst := 0.0
	for _, c := range checks {
		if !c.Skipped && c.Residual > worst {
			worst = c.Residual
		}
	}
	return worst
}

// InputImpedance builds the solution's ladder network node by node, terminates
// the input port with zInitial, injects a unit test current at the output
// port, and returns the resulting port voltage, which is the impedance the
// target sees. Components are walked before lines; within each list the order
// is the circuit order from source to target.
func InputImpedance(logger *zap.Logger, sol matching.Solution, zInitial complex128, freq float64) (complex128, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if freq <= 0 {
		return 0, fmt.Errorf("frequency must be positive, got %g", freq)
	}
	if cabs(zInitial) < constants.ZeroResistanceEpsilon {
		return 0, fmt.Errorf("source impedance %v is too small to terminate the network", zInitial)
	}
	omega := 2 * math.Pi * freq

	nodes := 1
	for _, c := range sol.Components {
		if c.Placement == matching.PlacementSeries {
			nodes++
		}
	}
	for _, l := range sol.Lines {
		if l.Kind == matching.LineSeries {
			nodes++
		}
	}

	m, err := newSystem(nodes)
	if err != nil {
		return 0, err
	}
	defer m.destroy()

	// The source impedance loads the input plane.
	m.stampTwoTerminal(1, 0, 1/zInitial)

	cur := 1
	next := 1
	for _, c := range sol.Components {
		y, err := componentAdmittance(c, omega)
		if err != nil {
			return 0, err
		}
		if c.Placement == matching.PlacementSeries {
			next++
			m.stampTwoTerminal(cur, next, y)
			cur = next
		} else {
			m.stampTwoTerminal(cur, 0, y)
		}
	}
	for _, l := range sol.Lines {
		switch l.Kind {
		case matching.LineSeries:
			next++
			if err := m.stampLine(cur, next, l); err != nil {
				return 0, err
			}
			cur = next
		default:
			y, err := stubAdmittance(l)
			if err != nil {
				return 0, err
			}
			m.stampTwoTerminal(cur, 0, y)
		}
	}

	logger.Debug("nodal system assembled",
		zap.String("op", "nodal.InputImpedance"),
		zap.Int("nodes", nodes),
		zap.Int("components", len(sol.Components)),
		zap.Int("lines", len(sol.Lines)),
	)
	return m.portImpedance(cur)
}

// componentAdmittance converts a reactive element to its branch admittance at
// the given angular frequency, starting from the physical value.
func componentAdmittance(c matching.Component, omega float64) (complex128, error) {
	if c.Value <= 0 {
		return 0, fmt.Errorf("%v %v has non-physical value %g", c.Placement, c.Kind, c.Value)
	}
	switch c.Kind {
	case matching.KindInductor:
		return complex(0, -1/(omega*c.Value)), nil
	case matching.KindCapacitor:
		return complex(0, omega*c.Value), nil
	default:
		return 0, fmt.Errorf("unknown component kind %v", c.Kind)
	}
}

// stubAdmittance recomputes the shunt admittance a stub presents from its
// electrical length, doubling it for a balanced pair.
func stubAdmittance(l matching.Line) (complex128, error) {
	if l.LengthLambda <= 0 || l.LengthLambda >= 0.5 {
		return 0, fmt.Errorf("stub length %g lambda outside (0, 0.5)", l.LengthLambda)
	}
	if l.Z0 <= 0 {
		return 0, fmt.Errorf("stub characteristic impedance %g is not positive", l.Z0)
	}
	theta := 2 * math.Pi * l.LengthLambda
	var b float64
	switch l.Kind {
	case matching.StubShort:
		b = -math.Cos(theta) / (math.Sin(theta) * l.Z0)
	case matching.StubOpen:
		b = math.Sin(theta) / (math.Cos(theta) * l.Z0)
	default:
		return 0, fmt.Errorf("line kind %v is not a stub", l.Kind)
	}
	if l.Balanced {
		b *= 2
	}
	return complex(0, b), nil
}

// system wraps the sparse complex matrix with 1-based node indexing, node 0
// being ground.
type system struct {
	m       *sparse.Matrix
	rhs     []float64
	rhsImag []float64
	size    int
}

func newSystem(size int) (*system, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: true,
		Expandable:              true,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
	}
	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating %d-node system: %w", size, err)
	}
	return &system{
		m:       m,
		rhs:     make([]float64, size+1),
		rhsImag: make([]float64, size+1),
		size:    size,
	}, nil
}

func (s *system) destroy() {
	if s.m != nil {
		s.m.Destroy()
	}
}

func (s *system) add(i, j int, y complex128) {
	e := s.m.GetElement(int64(i), int64(j))
	e.Real += real(y)
	e.Imag += imag(y)
}

// stampTwoTerminal stamps a branch admittance between two nodes; ground rows
// and columns are dropped.
func (s *system) stampTwoTerminal(i, j int, y complex128) {
	if i > 0 {
		s.add(i, i, y)
	}
	if j > 0 {
		s.add(j, j, y)
	}
	if i > 0 && j > 0 {
		s.add(i, j, -y)
		s.add(j, i, -y)
	}
}

// stampLine stamps the admittance two-port of a lossless cascade section:
// Y11 = Y22 = -j*cot(theta)/Z0, Y12 = Y21 = j/(Z0*sin(theta)).
func (s *system) stampLine(a, b int, l matching.Line) error {
	if l.LengthLambda <= 0 || l.LengthLambda >= 0.5 {
		return fmt.Errorf("line length %g lambda outside (0, 0.5)", l.LengthLambda)
	}
	if l.Z0 <= 0 {
		return fmt.Errorf("line characteristic impedance %g is not positive", l.Z0)
	}
	theta := 2 * math.Pi * l.LengthLambda
	sin, cos := math.Sin(theta), math.Cos(theta)
	self := complex(0, -cos/(sin*l.Z0))
	mutual := complex(0, 1/(sin*l.Z0))
	s.add(a, a, self)
	s.add(b, b, self)
	s.add(a, b, mutual)
	s.add(b, a, mutual)
	return nil
}

// portImpedance injects one ampere into the node and solves; the node voltage
// is the port's input impedance.
func (s *system) portImpedance(node int) (complex128, error) {
	s.rhs[node] = 1
	if err := s.m.Factor(); err != nil {
		return 0, fmt.Errorf("factoring nodal matrix: %w", err)
	}
	re, im, err := s.m.SolveComplex(s.rhs, s.rhsImag)
	if err != nil {
		return 0, fmt.Errorf("solving nodal system: %w", err)
	}
	return complex(re[node], im[node]), nil
}

func cabs(z complex128) float64 {
	re, im := real(z), imag(z)
	return math.Hypot(re, im)
}
