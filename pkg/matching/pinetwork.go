package matching

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// SolvePi computes the three-element shunt-series-shunt network, the
// admittance-domain dual of the T synthesis: two back-to-back L-sections
// transform the parallel-equivalent port resistances down to a virtual
// resistance R_v below both, with Q selecting how far below. Exactly one
// solution is produced.
func SolvePi(logger *zap.Logger, req Request) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	res := s.newResult(TopologyPi)
	logger.Debug("solving Pi-network",
		zap.String("op", "matching.SolvePi"),
		zap.String("z_initial", units.FormatComplex(s.Z1)),
		zap.String("z_target", units.FormatComplex(s.Z2)),
		zap.Float64("q", req.Q),
	)

	y1 := impedance.ZToY(s.Z1)
	y2 := impedance.ZToY(s.Z2)
	if real(y1) < constants.ZeroResistanceEpsilon || real(y2) < constants.ZeroResistanceEpsilon {
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyPi,
			"Pi synthesis requires a finite parallel resistance at both ports"))
		return res, nil
	}

	rp1 := 1 / real(y1)
	rp2 := 1 / real(y2)
	rLow := math.Min(rp1, rp2)
	rHigh := math.Max(rp1, rp2)
	qMin := math.Sqrt(rHigh/rLow - 1)

	sol := Solution{
		Topology: TopologyPi,
		Status:   StatusNormal,
	}
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("parallel-equivalent resistances R_p1 = %.6g ohm, R_p2 = %.6g ohm; Q_min = sqrt(R_high/R_low - 1) = %.6g",
			rp1, rp2, qMin))

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
	sol.Name = fmt.Sprintf("Pi network, Q = %.4g", q)

	rv := rHigh / (q*q + 1)
	sol.Steps = append(sol.Steps, fmt.Sprintf("virtual resistance R_v = R_high/(Q^2+1) = %.6g ohm", rv))

	q1 := math.Sqrt(math.Max(0, rp1/rv-1))
	q2 := math.Sqrt(math.Max(0, rp2/rv-1))
	b1Ideal := q1 / rp1
	b2Ideal := q2 / rp2
	xMid := q1*rv + q2*rv

	b1 := b1Ideal - imag(y1)
	b2 := b2Ideal + imag(y2)

	sol.Steps = append(sol.Steps,
		fmt.Sprintf("source side: Q = %.6g, ideal shunt B = %.6g S, series contribution X = %.6g ohm", q1, b1Ideal, q1*rv),
		fmt.Sprintf("target side: Q = %.6g, ideal shunt B = %.6g S, series contribution X = %.6g ohm", q2, b2Ideal, q2*rv),
		fmt.Sprintf("absorb source susceptance: B_1 = %.6g - (%.6g) = %+.6g S", b1Ideal, imag(y1), b1),
		fmt.Sprintf("present target susceptance: B_2 = %.6g + (%.6g) = %+.6g S", b2Ideal, imag(y2), b2),
		fmt.Sprintf("middle series X = %.6g ohm", xMid),
	)

	shunt1, ok1 := FromSusceptance(b1, s.omega, PlacementShunt)
	seriesMid, okM := FromReactance(xMid, s.omega, PlacementSeries)
	shunt2, ok2 := FromSusceptance(b2, s.omega, PlacementShunt)

	yA := y1
	zA := s.Z1
	if ok1 {
		sol.Components = append(sol.Components, shunt1)
		sol.Steps = append(sol.Steps, shunt1.Describe())
		yA += complex(0, shunt1.Susceptance())
		zA = impedance.YToZ(yA)
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(s.Z1, s.z0),
			To:    impedance.ZToGamma(zA, s.z0),
			Kind:  SegmentShunt,
			Label: fmt.Sprintf("shunt %s", shunt1.Kind),
		})
	} else {
		sol.Steps = append(sol.Steps, "first shunt element below omission threshold, omitted")
	}

	zB := zA
	if okM {
		sol.Components = append(sol.Components, seriesMid)
		sol.Steps = append(sol.Steps, seriesMid.Describe())
		zB = zA + complex(0, seriesMid.Reactance)
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(zA, s.z0),
			To:    impedance.ZToGamma(zB, s.z0),
			Kind:  SegmentSeries,
			Label: fmt.Sprintf("series %s", seriesMid.Kind),
		})
	} else {
		sol.Steps = append(sol.Steps, "middle series element below omission threshold, omitted")
	}

	zOut := zB
	if ok2 {
		sol.Components = append(sol.Components, shunt2)
		sol.Steps = append(sol.Steps, shunt2.Describe())
		zOut = impedance.YToZ(impedance.ZToY(zB) + complex(0, shunt2.Susceptance()))
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(zB, s.z0),
			To:    impedance.ZToGamma(zOut, s.z0),
			Kind:  SegmentShunt,
			Label: fmt.Sprintf("shunt %s", shunt2.Kind),
		})
	} else {
		sol.Steps = append(sol.Steps, "second shunt element below omission threshold, omitted")
	}

	sol.ZOut = zOut
	sol.Residual = cabs(zOut - s.Z2)
	sol.Steps = append(sol.Steps,
		fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
	res.Solutions = append(res.Solutions, sol)
	return res, nil
}
