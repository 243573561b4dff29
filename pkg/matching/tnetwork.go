package matching

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// SolveT computes the three-element series-shunt-series network for the
// requested or automatically chosen Q. The synthesis decomposes the problem
// into two back-to-back L-sections that both transform toward a virtual
// resistance R_v above both port resistances; Q selects how far above.
// Exactly one solution is produced.
func SolveT(logger *zap.Logger, req Request) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	res := s.newResult(TopologyT)
	logger.Debug("solving T-network",
		zap.String("op", "matching.SolveT"),
		zap.String("z_initial", units.FormatComplex(s.Z1)),
		zap.String("z_target", units.FormatComplex(s.Z2)),
		zap.Float64("q", req.Q),
	)

	r1 := real(s.Z1)
	r2 := real(s.Z2)
	if r1 < constants.ZeroResistanceEpsilon || r2 < constants.ZeroResistanceEpsilon {
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyT,
			"T synthesis requires a resistive part at both ports"))
		return res, nil
	}

	rLow := math.Min(r1, r2)
	rHigh := math.Max(r1, r2)
	qMin := math.Sqrt(rHigh/rLow - 1)

	sol := Solution{
		Topology: TopologyT,
		Status:   StatusNormal,
	}
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("port resistances R1 = %.6g ohm, R2 = %.6g ohm; Q_min = sqrt(R_high/R_low - 1) = %.6g", r1, r2, qMin))

	q := req.Q
	switch {
	case q <= 0:
		q = math.Max(2.0, qMin+1.0)
		sol.Steps = append(sol.Steps, fmt.Sprintf("no Q requested, selecting Q = max(2, Q_min+1) = %.6g", q))
	case q < qMin:
		q = qMin + 0.1
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("requested Q = %.6g is below the feasible minimum %.6g, adjusted to Q_min + 0.1 = %.6g", req.Q, qMin, q))
	default:
		sol.Steps = append(sol.Steps, fmt.Sprintf("using requested Q = %.6g", q))
	}
	sol.Q = q
	sol.Name = fmt.Sprintf("T network, Q = %.4g", q)

	rv := rLow * (q*q + 1)
	if rv < rHigh*1.05 {
		rv = rHigh * 1.05
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("virtual resistance clamped to R_high * 1.05 = %.6g ohm", rv))
	}
	sol.Steps = append(sol.Steps, fmt.Sprintf("virtual resistance R_v = %.6g ohm", rv))

	q1 := math.Sqrt(rv/r1 - 1)
	q2 := math.Sqrt(rv/r2 - 1)
	x1Ideal := q1 * r1
	x2Ideal := q2 * r2
	bMid := q1/rv + q2/rv

	x1 := x1Ideal - imag(s.Z1)
	x2 := x2Ideal + imag(s.Z2)

	sol.Steps = append(sol.Steps,
		fmt.Sprintf("source side: Q = %.6g, ideal series X = %.6g ohm, shunt contribution B = %.6g S", q1, x1Ideal, q1/rv),
		fmt.Sprintf("target side: Q = %.6g, ideal series X = %.6g ohm, shunt contribution B = %.6g S", q2, x2Ideal, q2/rv),
		fmt.Sprintf("absorb source reactance: X_1 = %.6g - (%.6g) = %+.6g ohm", x1Ideal, imag(s.Z1), x1),
		fmt.Sprintf("present target reactance: X_2 = %.6g + (%.6g) = %+.6g ohm", x2Ideal, imag(s.Z2), x2),
		fmt.Sprintf("middle shunt B = %.6g S", bMid),
	)

	series1, ok1 := FromReactance(x1, s.omega, PlacementSeries)
	shuntMid, okM := FromSusceptance(bMid, s.omega, PlacementShunt)
	series2, ok2 := FromReactance(x2, s.omega, PlacementSeries)

	zA := s.Z1
	if ok1 {
		sol.Components = append(sol.Components, series1)
		sol.Steps = append(sol.Steps, series1.Describe())
		zA += complex(0, series1.Reactance)
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(s.Z1, s.z0),
			To:    impedance.ZToGamma(zA, s.z0),
			Kind:  SegmentSeries,
			Label: fmt.Sprintf("series %s", series1.Kind),
		})
	} else {
		sol.Steps = append(sol.Steps, "first series element below omission threshold, omitted")
	}

	zM := zA
	if okM {
		sol.Components = append(sol.Components, shuntMid)
		sol.Steps = append(sol.Steps, shuntMid.Describe())
		zM = impedance.YToZ(impedance.ZToY(zA) + complex(0, shuntMid.Susceptance()))
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(zA, s.z0),
			To:    impedance.ZToGamma(zM, s.z0),
			Kind:  SegmentShunt,
			Label: fmt.Sprintf("shunt %s", shuntMid.Kind),
		})
	} else {
		sol.Steps = append(sol.Steps, "middle shunt element below omission threshold, omitted")
	}

	zOut := zM
	if ok2 {
		sol.Components = append(sol.Components, series2)
		sol.Steps = append(sol.Steps, series2.Describe())
		zOut = zM + complex(0, series2.Reactance)
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(zM, s.z0),
			To:    impedance.ZToGamma(zOut, s.z0),
			Kind:  SegmentSeries,
			Label: fmt.Sprintf("series %s", series2.Kind),
		})
	} else {
		sol.Steps = append(sol.Steps, "second series element below omission threshold, omitted")
	}

	sol.ZOut = zOut
	sol.Residual = cabs(zOut - s.Z2)
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
	res.Solutions = append(res.Solutions, sol)
	return res, nil
}
