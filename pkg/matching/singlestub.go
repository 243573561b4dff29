package matching

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// SolveSingleStub computes matching networks made of a series line section
// followed by one shunt stub. The line rotates the source along its
// constant-|Gamma| circle onto the target's constant-conductance circle; the
// stub then cancels the remaining susceptance. Each circle intersection and
// each stub termination (short, open) is enumerated as its own candidate.
func SolveSingleStub(logger *zap.Logger, req Request) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	res := s.newResult(TopologySingleStub)
	s.solveShuntStub(logger, res, TopologySingleStub, false)
	return res, nil
}

// solveShuntStub is the shared line-plus-shunt-stub enumeration behind the
// single and balanced variants. With balanced set, the required susceptance
// is split evenly across two identical stubs and reported lengths are per
// stub.
func (s *state) solveShuntStub(logger *zap.Logger, res *Result, topology Topology, balanced bool) {
	logger.Debug("solving shunt-stub network",
		zap.String("op", "matching.solveShuntStub"),
		zap.String("topology", string(topology)),
		zap.String("z_initial", units.FormatComplex(s.Z1)),
		zap.String("z_target", units.FormatComplex(s.Z2)),
	)

	if sol, ok := s.directConnect(topology); ok {
		res.Solutions = append(res.Solutions, sol)
		return
	}

	r := cabs(s.G1)
	if math.Abs(r-cabs(s.G2)) < constants.GammaMagnitudeTolerance {
		res.Solutions = append(res.Solutions, s.lineOnlySolution(topology))
	}

	if real(s.Z1) < constants.ZeroResistanceEpsilon && real(s.Z2) > constants.ZeroResistanceEpsilon {
		res.Solutions = append(res.Solutions, infeasibleSolution(topology,
			"source is purely reactive: no shunt-stub network can supply the resistive part the target requires"))
		return
	}
	if r >= 1-constants.RootEpsilon {
		return
	}

	g := real(s.y2)
	gMin := (1 - r) / (1 + r)
	gMax := (1 + r) / (1 - r)
	if g < gMin || g > gMax {
		res.addStep(fmt.Sprintf(
			"target conductance g = %.6g lies outside [%.6g, %.6g], the range reachable from |Gamma_initial| = %.6g: no line length lands on the conductance circle",
			g, gMin, gMax, r))
		return
	}

	// Intersect the constant-|Gamma| circle (radius r, centered at the
	// origin) with the constant-conductance circle for g (center (c, 0),
	// radius rho).
	c := -g / (1 + g)
	rho := 1 / (1 + g)
	u := (c*c + r*r - rho*rho) / (2 * c)
	v := math.Sqrt(math.Max(0, r*r-u*u))

	res.addStep(fmt.Sprintf(
		"conductance circle: center (%.6g, 0), radius %.6g; VSWR circle radius %.6g; intersection at u = %.6g, v = ±%.6g",
		c, rho, r, u, v))

	type intersection struct {
		gamma complex128
		label string
	}
	var points []intersection
	if v <= constants.RootEpsilon {
		points = []intersection{{complex(u, 0), "tangent intersection"}}
	} else {
		points = []intersection{
			{complex(u, v), "upper intersection"},
			{complex(u, -v), "lower intersection"},
		}
	}

	for _, pt := range points {
		s.appendStubSolutions(res, topology, balanced, pt.gamma, pt.label)
	}

	logger.Debug("shunt-stub enumeration complete",
		zap.String("op", "matching.solveShuntStub"),
		zap.Int("solutions", len(res.Solutions)),
	)
}

// appendStubSolutions emits the candidates for one circle intersection: a
// solution per stub termination, or a single line-only solution when the
// residual susceptance vanishes.
func (s *state) appendStubSolutions(res *Result, topology Topology, balanced bool, gammaMid complex128, label string) {
	d := rotationLength(s.G1, gammaMid)
	yMid := yFromGamma(gammaMid)
	b := imag(s.y2) - imag(yMid)

	baseSteps := []string{
		fmt.Sprintf("%s: Gamma_mid = %s, line length d = %.6f lambda (%.2f mm)",
			label, units.FormatComplex(gammaMid), d, d*s.lambda*1000),
		fmt.Sprintf("y_mid = %s; required stub susceptance b = Im(y2) - Im(y_mid) = %+.6g",
			units.FormatComplex(yMid), b),
	}

	lineSegment := func(sol *Solution) complex128 {
		gamma := s.G1
		if d >= constants.ComponentEpsilon {
			sol.Lines = append(sol.Lines, s.newLine(LineSeries, d, 0, false))
			gamma = lineRotate(s.G1, d)
			sol.Path = append(sol.Path, PathSegment{
				From:  s.G1,
				To:    gamma,
				Kind:  SegmentLine,
				Label: fmt.Sprintf("line %.4f lambda", d),
			})
		} else {
			sol.Steps = append(sol.Steps, "source already on the conductance circle, line omitted")
		}
		return gamma
	}

	if math.Abs(b) < constants.ComponentEpsilon {
		sol := Solution{
			Topology: topology,
			Status:   StatusNormal,
			Name:     fmt.Sprintf("%s, stub omitted", label),
		}
		sol.Steps = append(sol.Steps, baseSteps...)
		gamma := lineSegment(&sol)
		sol.Steps = append(sol.Steps, "stub susceptance below omission threshold, stub omitted")
		zOut := impedance.Denormalize(impedance.GammaToZ(gamma, 1), s.z0)
		sol.ZOut = zOut
		sol.Residual = cabs(zOut - s.Z2)
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
		res.Solutions = append(res.Solutions, sol)
		return
	}

	bStub := b
	if balanced {
		bStub = b / 2
	}

	for _, kind := range []LineKind{StubShort, StubOpen} {
		l := stubLength(bStub, kind)
		sol := Solution{
			Topology: topology,
			Status:   StatusNormal,
			Name:     fmt.Sprintf("%s, %s", label, kind),
		}
		sol.Steps = append(sol.Steps, baseSteps...)
		if balanced {
			sol.Steps = append(sol.Steps,
				fmt.Sprintf("susceptance split across two stubs, one per leg: b_each = %+.6g", bStub))
		}
		gamma := lineSegment(&sol)

		stub := s.newLine(kind, l, bStub, balanced)
		sol.Lines = append(sol.Lines, stub)
		if kind == StubShort {
			sol.Steps = append(sol.Steps,
				fmt.Sprintf("short-circuited stub: tan(beta*l) = -1/b gives l = %.6f lambda", l))
		} else {
			sol.Steps = append(sol.Steps,
				fmt.Sprintf("open-circuited stub: tan(beta*l) = b gives l = %.6f lambda", l))
		}
		sol.Steps = append(sol.Steps, stub.Describe())

		bActual := stubSusceptance(l, kind)
		if balanced {
			bActual *= 2
		}
		yOut := yFromGamma(gamma) + complex(0, bActual)
		zOut := impedance.Denormalize(impedance.YToZ(yOut), s.z0)
		sol.ZOut = zOut
		sol.Residual = cabs(zOut - s.Z2)
		sol.Path = append(sol.Path, PathSegment{
			From:  gamma,
			To:    impedance.ZToGamma(zOut, s.z0),
			Kind:  SegmentShunt,
			Label: stub.Kind.String(),
		})
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
		res.Solutions = append(res.Solutions, sol)
	}
}

// lineOnlySolution builds the no-stub candidate available whenever source and
// target sit on the same constant-|Gamma| circle.
func (s *state) lineOnlySolution(topology Topology) Solution {
	d := rotationLength(s.G1, s.G2)
	sol := Solution{
		Topology: topology,
		Status:   StatusNormal,
		Name:     "transmission line only",
	}
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("|Gamma_initial| = %.6g and |Gamma_target| = %.6g coincide within %.0e: a plain line rotation reaches the target",
			cabs(s.G1), cabs(s.G2), constants.GammaMagnitudeTolerance))

	gamma := s.G1
	if d >= constants.ComponentEpsilon {
		line := s.newLine(LineSeries, d, 0, false)
		sol.Lines = append(sol.Lines, line)
		sol.Steps = append(sol.Steps, line.Describe())
		gamma = lineRotate(s.G1, d)
		sol.Path = append(sol.Path, PathSegment{
			From:  s.G1,
			To:    gamma,
			Kind:  SegmentLine,
			Label: fmt.Sprintf("line %.4f lambda", d),
		})
	} else {
		sol.Steps = append(sol.Steps, "rotation below omission threshold, no line needed")
	}

	zOut := impedance.Denormalize(impedance.GammaToZ(gamma, 1), s.z0)
	sol.ZOut = zOut
	sol.Residual = cabs(zOut - s.Z2)
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
	return sol
}
