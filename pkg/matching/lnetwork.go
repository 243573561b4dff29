package matching

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// SolveL computes two-element matching networks between the request's source
// and target impedance: a series element followed by a shunt element
// (series-first) and the reverse (shunt-first), up to four candidates in
// total. Physical infeasibility is reported through the result, never as an
// error.
func SolveL(logger *zap.Logger, req Request) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := resolve(req)
	if err != nil {
		return nil, err
	}
	res := s.newResult(TopologyL)
	logger.Debug("solving L-network",
		zap.String("op", "matching.SolveL"),
		zap.String("z_initial", units.FormatComplex(s.Z1)),
		zap.String("z_target", units.FormatComplex(s.Z2)),
	)

	if sol, ok := s.directConnect(TopologyL); ok {
		res.Solutions = append(res.Solutions, sol)
		return res, nil
	}

	r1 := real(s.Z1)
	r2 := real(s.Z2)
	switch {
	case r1 < constants.ZeroResistanceEpsilon && r2 > constants.ZeroResistanceEpsilon:
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyL,
			"source is purely reactive: a lossless two-element network cannot supply the resistive part the target requires"))
		return res, nil
	case r2 < constants.ZeroResistanceEpsilon && r1 > constants.ZeroResistanceEpsilon:
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyL,
			"target is purely reactive: a lossless two-element network cannot remove the source's resistive part"))
		return res, nil
	case r1 < constants.ZeroResistanceEpsilon && r2 < constants.ZeroResistanceEpsilon:
		s.reactiveCompletions(res)
		return res, nil
	}

	s.seriesFirst(res)
	s.shuntFirst(res)

	if len(res.Solutions) == 0 {
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyL,
			"no real root exists for either element order"))
	}
	logger.Debug("L-network enumeration complete",
		zap.String("op", "matching.SolveL"),
		zap.Int("solutions", len(res.Solutions)),
	)
	return res, nil
}

// seriesFirst enumerates the solutions where a series element moves z1 along
// its constant-r circle to z_mid = r1 + j*x_mid and a shunt element then
// closes the match. Matching requires Re(1/z_mid) = Re(y2), which pins
// x_mid^2 = r1/g2 - r1^2.
func (s *state) seriesFirst(res *Result) {
	r1 := real(s.z1)
	g2 := real(s.y2)
	disc := r1/g2 - r1*r1
	if disc < -constants.RootEpsilon {
		res.addStep(fmt.Sprintf("series-first: discriminant r1/g2 - r1^2 = %.6g < 0, no real root", disc))
		return
	}

	root := math.Sqrt(math.Max(0, disc))
	roots := []float64{root, -root}
	names := []string{"series-first, positive root", "series-first, negative root"}
	if root <= constants.RootEpsilon {
		roots = roots[:1]
		names = []string{"series-first, single root"}
	}

	for i, xMid := range roots {
		zMid := complex(r1, xMid)
		yMid := impedance.ZToY(zMid)

		xSeries := (xMid - imag(s.z1)) * s.z0
		bShunt := (imag(s.y2) - imag(yMid)) / s.z0

		series, seriesOK := FromReactance(xSeries, s.omega, PlacementSeries)
		shunt, shuntOK := FromSusceptance(bShunt, s.omega, PlacementShunt)

		sol := Solution{
			Topology:    TopologyL,
			Status:      StatusNormal,
			Name:        names[i],
			FilterClass: classifyTwoElement(series, shunt, seriesOK, shuntOK),
		}
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("series-first: discriminant r1/g2 - r1^2 = %.6g, x_mid = %+.6g", disc, xMid),
			fmt.Sprintf("z_mid = %s, y_mid = %s", units.FormatComplex(zMid), units.FormatComplex(yMid)),
			fmt.Sprintf("series X = (x_mid - Im(z1)) * Z0 = %+.6g ohm", xSeries),
			fmt.Sprintf("shunt b = Im(y2) - Im(y_mid) = %+.6g (B = %+.6g S)", imag(s.y2)-imag(yMid), bShunt),
		)

		zA := s.Z1
		if seriesOK {
			sol.Components = append(sol.Components, series)
			sol.Steps = append(sol.Steps, series.Describe())
			zA += complex(0, series.Reactance)
			sol.Path = append(sol.Path, PathSegment{
				From:  impedance.ZToGamma(s.Z1, s.z0),
				To:    impedance.ZToGamma(zA, s.z0),
				Kind:  SegmentSeries,
				Label: fmt.Sprintf("series %s", series.Kind),
			})
		} else {
			sol.Steps = append(sol.Steps, "series element below omission threshold, omitted")
		}

		zOut := zA
		if shuntOK {
			sol.Components = append(sol.Components, shunt)
			sol.Steps = append(sol.Steps, shunt.Describe())
			zOut = impedance.YToZ(impedance.ZToY(zA) + complex(0, shunt.Susceptance()))
			sol.Path = append(sol.Path, PathSegment{
				From:  impedance.ZToGamma(zA, s.z0),
				To:    impedance.ZToGamma(zOut, s.z0),
				Kind:  SegmentShunt,
				Label: fmt.Sprintf("shunt %s", shunt.Kind),
			})
		} else {
			sol.Steps = append(sol.Steps, "shunt element below omission threshold, omitted")
		}

		sol.ZOut = zOut
		sol.Residual = cabs(zOut - s.Z2)
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
		res.Solutions = append(res.Solutions, sol)
	}
}

// shuntFirst enumerates the dual order: a shunt element moves y1 along its
// constant-g circle to y_mid = g1 + j*b_mid, then a series element closes the
// match. Matching requires Re(1/y_mid) = Re(z2), which pins
// b_mid^2 = g1/r2 - g1^2.
func (s *state) shuntFirst(res *Result) {
	g1 := real(s.y1)
	r2 := real(s.z2)
	disc := g1/r2 - g1*g1
	if disc < -constants.RootEpsilon {
		res.addStep(fmt.Sprintf("shunt-first: discriminant g1/r2 - g1^2 = %.6g < 0, no real root", disc))
		return
	}

	root := math.Sqrt(math.Max(0, disc))
	roots := []float64{root, -root}
	names := []string{"shunt-first, positive root", "shunt-first, negative root"}
	if root <= constants.RootEpsilon {
		roots = roots[:1]
		names = []string{"shunt-first, single root"}
	}

	for i, bMid := range roots {
		yMid := complex(g1, bMid)
		zMid := impedance.YToZ(yMid)

		bShunt := (bMid - imag(s.y1)) / s.z0
		xSeries := (imag(s.z2) - imag(zMid)) * s.z0

		shunt, shuntOK := FromSusceptance(bShunt, s.omega, PlacementShunt)
		series, seriesOK := FromReactance(xSeries, s.omega, PlacementSeries)

		sol := Solution{
			Topology:    TopologyL,
			Status:      StatusNormal,
			Name:        names[i],
			FilterClass: classifyTwoElement(series, shunt, seriesOK, shuntOK),
		}
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("shunt-first: discriminant g1/r2 - g1^2 = %.6g, b_mid = %+.6g", disc, bMid),
			fmt.Sprintf("y_mid = %s, z_mid = %s", units.FormatComplex(yMid), units.FormatComplex(zMid)),
			fmt.Sprintf("shunt b = b_mid - Im(y1) = %+.6g (B = %+.6g S)", bMid-imag(s.y1), bShunt),
			fmt.Sprintf("series X = (Im(z2) - Im(z_mid)) * Z0 = %+.6g ohm", xSeries),
		)

		yA := impedance.ZToY(s.Z1)
		zA := s.Z1
		if shuntOK {
			sol.Components = append(sol.Components, shunt)
			sol.Steps = append(sol.Steps, shunt.Describe())
			yA += complex(0, shunt.Susceptance())
			zA = impedance.YToZ(yA)
			sol.Path = append(sol.Path, PathSegment{
				From:  impedance.ZToGamma(s.Z1, s.z0),
				To:    impedance.ZToGamma(zA, s.z0),
				Kind:  SegmentShunt,
				Label: fmt.Sprintf("shunt %s", shunt.Kind),
			})
		} else {
			sol.Steps = append(sol.Steps, "shunt element below omission threshold, omitted")
		}

		zOut := zA
		if seriesOK {
			sol.Components = append(sol.Components, series)
			sol.Steps = append(sol.Steps, series.Describe())
			zOut = zA + complex(0, series.Reactance)
			sol.Path = append(sol.Path, PathSegment{
				From:  impedance.ZToGamma(zA, s.z0),
				To:    impedance.ZToGamma(zOut, s.z0),
				Kind:  SegmentSeries,
				Label: fmt.Sprintf("series %s", series.Kind),
			})
		} else {
			sol.Steps = append(sol.Steps, "series element below omission threshold, omitted")
		}

		sol.ZOut = zOut
		sol.Residual = cabs(zOut - s.Z2)
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
		res.Solutions = append(res.Solutions, sol)
	}
}

// reactiveCompletions handles the case where both ports are purely reactive.
// The general quadratics degenerate (0/0), but a single element completes the
// transformation: a series element always, and a shunt element whenever both
// reactances are nonzero.
func (s *state) reactiveCompletions(res *Result) {
	x1 := imag(s.Z1)
	x2 := imag(s.Z2)
	res.addStep("both ports are purely reactive: a single lossless element completes the transformation")

	if series, ok := FromReactance(x2-x1, s.omega, PlacementSeries); ok {
		sol := Solution{
			Topology:   TopologyL,
			Status:     StatusNormal,
			Name:       "series completion",
			Components: []Component{series},
		}
		zOut := s.Z1 + complex(0, series.Reactance)
		sol.ZOut = zOut
		sol.Residual = cabs(zOut - s.Z2)
		sol.Steps = append(sol.Steps,
			fmt.Sprintf("series X = Im(Z_target) - Im(Z_initial) = %+.6g ohm", x2-x1),
			series.Describe(),
			fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
		sol.Path = append(sol.Path, PathSegment{
			From:  impedance.ZToGamma(s.Z1, s.z0),
			To:    impedance.ZToGamma(zOut, s.z0),
			Kind:  SegmentSeries,
			Label: fmt.Sprintf("series %s", series.Kind),
		})
		res.Solutions = append(res.Solutions, sol)
	}

	if math.Abs(x1) > constants.ComponentEpsilon && math.Abs(x2) > constants.ComponentEpsilon {
		bShunt := 1/x1 - 1/x2
		if shunt, ok := FromSusceptance(bShunt, s.omega, PlacementShunt); ok {
			sol := Solution{
				Topology:   TopologyL,
				Status:     StatusNormal,
				Name:       "shunt completion",
				Components: []Component{shunt},
			}
			zOut := impedance.YToZ(impedance.ZToY(s.Z1) + complex(0, shunt.Susceptance()))
			sol.ZOut = zOut
			sol.Residual = cabs(zOut - s.Z2)
			sol.Steps = append(sol.Steps,
				fmt.Sprintf("shunt B = Im(Y_target) - Im(Y_initial) = %+.6g S", bShunt),
				shunt.Describe(),
				fmt.Sprintf("recomposed Z_out = %s ohm, residual = %.3g ohm", units.FormatComplex(zOut), sol.Residual))
			sol.Path = append(sol.Path, PathSegment{
				From:  impedance.ZToGamma(s.Z1, s.z0),
				To:    impedance.ZToGamma(zOut, s.z0),
				Kind:  SegmentShunt,
				Label: fmt.Sprintf("shunt %s", shunt.Kind),
			})
			res.Solutions = append(res.Solutions, sol)
		}
	}

	if len(res.Solutions) == 0 {
		res.Solutions = append(res.Solutions, infeasibleSolution(TopologyL,
			"no single reactive element transforms the source reactance into the target reactance"))
	}
}
