package matching

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// SolveDoubleStub computes double-stub tuners: a first shunt stub at the
// input plane, a fixed line section of lambda/8 or 3*lambda/8, and a second
// shunt stub. The two supported spacings make t = tan(beta*s) exactly +1 or
// -1, keeping the fixed line away from the quarter-wave singularity.
// Requiring the target conductance after the fixed line pins the combined
// susceptance B at the input plane through a quadratic; each real root and
// each stub termination is a distinct candidate.
func SolveDoubleStub(logger *zap.Logger, req Request) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	res := s.newResult(TopologyDoubleStub)

	spacing := req.Spacing
	if spacing == 0 {
		spacing = constants.SpacingEighthWave
	}
	t := 1.0
	if math.Abs(spacing-constants.SpacingThreeEighthWave) < 1e-9 {
		t = -1.0
	}
	res.addStep("stub spacing s = %g lambda, t = tan(beta*s) = %+g", spacing, t)

	logger.Debug("solving double-stub network",
		zap.String("op", "matching.SolveDoubleStub"),
		zap.Float64("spacing", spacing),
		zap.String("z_initial", units.FormatComplex(s.Z1)),
		zap.String("z_target", units.FormatComplex(s.Z2)),
	)

	if sol, ok := s.directConnect(TopologyDoubleStub); ok {
		res.Solutions = append(res.Solutions, sol)
		return res, nil
	}
	if real(s.Z1) < constants.ZeroResistanceEpsilon && real(s.Z2) > constants.ZeroResistanceEpsilon {
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyDoubleStub,
			"source is purely reactive: no stub network can supply the resistive part the target requires"))
		return res, nil
	}

	gT := real(s.y2)
	if gT < constants.RootEpsilon {
		res.addStep(fmt.Sprintf(
			"target conductance g_t = %.6g is degenerate: the double-stub quadratic requires a finite target conductance, unsupported", gT))
		return res, nil
	}

	g := real(s.y1)
	b := imag(s.y1)
	bT := imag(s.y2)

	// Re(y2) = g_t after the fixed line requires
	// B^2 - 2tB + (t^2 - 2g/g_t + g^2) = 0 for the combined input
	// susceptance B = b + b1.
	disc := 2*g/gT - g*g
	if disc < -constants.RootEpsilon {
		res.addStep(fmt.Sprintf(
			"discriminant 2g/g_t - g^2 = %.6g < 0: source conductance g = %.6g lies in the forbidden region for this spacing, no real stub setting exists",
			disc, g))
		return res, nil
	}

	root := math.Sqrt(math.Max(0, disc))
	type candidate struct {
		B     float64
		label string
	}
	var cands []candidate
	if root <= constants.RootEpsilon {
		cands = []candidate{{t, "single root"}}
	} else {
		cands = []candidate{
			{t + root, "positive root"},
			{t - root, "negative root"},
		}
	}
	res.addStep(fmt.Sprintf("discriminant 2g/g_t - g^2 = %.6g, roots B = t ± sqrt(disc)", disc))

	for _, cand := range cands {
		b1 := cand.B - b
		y1p := complex(g, cand.B)
		y2p := (y1p + complex(0, t)) / (1 + complex(0, t)*y1p)
		b2 := bT - imag(y2p)

		baseSteps := []string{
			fmt.Sprintf("%s: B = %+.6g, first stub b1 = B - Im(y1) = %+.6g", cand.label, cand.B, b1),
			fmt.Sprintf("after fixed line: y2' = %s (Re = %.6g, matching g_t = %.6g)",
				units.FormatComplex(y2p), real(y2p), gT),
			fmt.Sprintf("second stub b2 = Im(y2) - Im(y2') = %+.6g", b2),
		}

		for _, kind := range []LineKind{StubShort, StubOpen} {
			sol := Solution{
				Topology: TopologyDoubleStub,
				Status:   StatusNormal,
				Name:     fmt.Sprintf("%s, %s", cand.label, kind),
			}
			sol.Steps = append(sol.Steps, baseSteps...)

			b1Actual := 0.0
			gammaIn := s.G1
			if math.Abs(b1) < constants.ComponentEpsilon {
				sol.Steps = append(sol.Steps, "first stub below omission threshold, omitted")
			} else {
				l1 := stubLength(b1, kind)
				stub1 := s.newLine(kind, l1, b1, false)
				sol.Lines = append(sol.Lines, stub1)
				sol.Steps = append(sol.Steps, "first stub: "+stub1.Describe())
				b1Actual = stubSusceptance(l1, kind)
				gammaIn = gammaFromY(s.y1 + complex(0, b1Actual))
				sol.Path = append(sol.Path, PathSegment{
					From:  s.G1,
					To:    gammaIn,
					Kind:  SegmentShunt,
					Label: "first " + kind.String(),
				})
			}

			gammaMid := lineRotate(gammaIn, spacing)
			line := s.newLine(LineSeries, spacing, 0, false)
			sol.Lines = append(sol.Lines, line)
			sol.Steps = append(sol.Steps, line.Describe())
			sol.Path = append(sol.Path, PathSegment{
				From:  gammaIn,
				To:    gammaMid,
				Kind:  SegmentLine,
				Label: fmt.Sprintf("line %g lambda", spacing),
			})

			b2Actual := 0.0
			if math.Abs(b2) < constants.ComponentEpsilon {
				sol.Steps = append(sol.Steps, "second stub below omission threshold, omitted")
			} else {
				l2 := stubLength(b2, kind)
				stub2 := s.newLine(kind, l2, b2, false)
				sol.Lines = append(sol.Lines, stub2)
				sol.Steps = append(sol.Steps, "second stub: "+stub2.Describe())
				b2Actual = stubSusceptance(l2, kind)
			}

			yOut := yFromGamma(gammaMid) + complex(0, b2Actual)
			zOut := impedance.Denormalize(impedance.YToZ(yOut), s.z0)
			sol.ZOut = zOut
			sol.Residual = cabs(zOut - s.Z2)
			sol.Path = append(sol.Path, PathSegment{
				From:  gammaMid,
				To:    impedance.ZToGamma(zOut, s.z0),
				Kind:  SegmentShunt,
				Label: "second " + kind.String(),
			})
			sol.Steps = append(sol.Steps,
				fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
			res.Solutions = append(res.Solutions, sol)
		}
	}

	logger.Debug("double-stub enumeration complete",
		zap.String("op", "matching.SolveDoubleStub"),
		zap.Int("solutions", len(res.Solutions)),
	)
	return res, nil
}
