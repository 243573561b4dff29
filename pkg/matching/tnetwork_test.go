package matching

import (
	"math"
	"strings"
	"testing"
)

func TestSolveTResistivePorts(t *testing.T) {
	// 10 to 100 ohm with Q = 4: R_v = 10*(16+1) = 170, source side Q = 4,
	// target side Q = sqrt(0.7).
	res, err := SolveT(nil, Request{
		ZInitial: Cpx(10, 0), ZTarget: Cpx(100, 0), Z0: 50, Frequency: 1e9, Q: 4,
	})
	if err != nil {
		t.Fatalf("SolveT() error = %v", err)
	}
	if len(res.Solutions) != 1 {
		t.Fatalf("SolveT() returned %d solutions, expected exactly 1", len(res.Solutions))
	}
	sol := res.Solutions[0]
	if sol.Status != StatusNormal {
		t.Fatalf("status = %v, expected normal", sol.Status)
	}
	if sol.Q != 4 {
		t.Errorf("Q = %g, expected 4", sol.Q)
	}
	if len(sol.Components) != 3 {
		t.Fatalf("component count = %d, expected 3", len(sol.Components))
	}

	first := sol.Components[0]
	if first.Kind != KindInductor || first.Placement != PlacementSeries {
		t.Errorf("first element = %v %v, expected series inductor", first.Placement, first.Kind)
	}
	if math.Abs(first.Reactance-40) > 1e-9 {
		t.Errorf("first series X = %g, expected 40", first.Reactance)
	}

	mid := sol.Components[1]
	if mid.Kind != KindCapacitor || mid.Placement != PlacementShunt {
		t.Errorf("middle element = %v %v, expected shunt capacitor", mid.Placement, mid.Kind)
	}
	if math.Abs(mid.Susceptance()-0.02845094133) > 1e-9 {
		t.Errorf("middle B = %g, expected 0.02845094133", mid.Susceptance())
	}

	last := sol.Components[2]
	if last.Kind != KindInductor || last.Placement != PlacementSeries {
		t.Errorf("last element = %v %v, expected series inductor", last.Placement, last.Kind)
	}
	if math.Abs(last.Reactance-83.66600265) > 1e-6 {
		t.Errorf("last series X = %g, expected 83.666", last.Reactance)
	}

	if sol.Residual > 1e-9 {
		t.Errorf("residual = %g, expected ~0", sol.Residual)
	}
	if len(sol.Path) != 3 {
		t.Errorf("path has %d segments, expected 3", len(sol.Path))
	}
}

func TestSolveTComplexPorts(t *testing.T) {
	// Port reactances are absorbed on the source side and presented on the
	// target side; the recomposed output must still hit the target exactly.
	res, err := SolveT(nil, Request{
		ZInitial: Cpx(10, 7), ZTarget: Cpx(100, -30), Z0: 50, Frequency: 1e9, Q: 4,
	})
	if err != nil {
		t.Fatalf("SolveT() error = %v", err)
	}
	sol := res.Solutions[0]
	if sol.Status != StatusNormal {
		t.Fatalf("status = %v, expected normal", sol.Status)
	}
	if math.Abs(sol.Components[0].Reactance-33) > 1e-9 {
		t.Errorf("first series X = %g, expected 40 - 7 = 33", sol.Components[0].Reactance)
	}
	if math.Abs(sol.Components[2].Reactance-53.66600265) > 1e-6 {
		t.Errorf("last series X = %g, expected 83.666 - 30 = 53.666", sol.Components[2].Reactance)
	}
	if sol.Residual > 1e-6 {
		t.Errorf("residual = %g, expected ~0", sol.Residual)
	}
}

func TestSolveTAutomaticQ(t *testing.T) {
	// Q_min = 3 for a 10:1 resistance ratio, so the default is
	// max(2, Q_min+1) = 4.
	res, err := SolveT(nil, Request{
		ZInitial: Cpx(10, 0), ZTarget: Cpx(100, 0), Z0: 50, Frequency: 1e9,
	})
	if err != nil {
		t.Fatalf("SolveT() error = %v", err)
	}
	if got := res.Solutions[0].Q; got != 4 {
		t.Errorf("automatic Q = %g, expected 4", got)
	}
}

func TestSolveTQBelowMinimumAdjusted(t *testing.T) {
	res, err := SolveT(nil, Request{
		ZInitial: Cpx(10, 0), ZTarget: Cpx(100, 0), Z0: 50, Frequency: 1e9, Q: 1,
	})
	if err != nil {
		t.Fatalf("SolveT() error = %v", err)
	}
	sol := res.Solutions[0]
	if math.Abs(sol.Q-3.1) > 1e-12 {
		t.Errorf("adjusted Q = %g, expected Q_min + 0.1 = 3.1", sol.Q)
	}
	found := false
	for _, step := range sol.Steps {
		if strings.Contains(step, "adjusted") {
			found = true
		}
	}
	if !found {
		t.Errorf("adjustment not recorded in derivation steps")
	}
	if sol.Residual > 1e-9 {
		t.Errorf("residual = %g, expected ~0", sol.Residual)
	}
}

func TestSolveTVirtualResistanceClamp(t *testing.T) {
	// Nearly equal ports with a tiny Q: R_v = R_low*(Q^2+1) lands below
	// R_high*1.05 and gets floor-clamped; the match must still be exact.
	res, err := SolveT(nil, Request{
		ZInitial: Cpx(50, 0), ZTarget: Cpx(50.5, 0), Z0: 50, Frequency: 1e9, Q: 0.2,
	})
	if err != nil {
		t.Fatalf("SolveT() error = %v", err)
	}
	sol := res.Solutions[0]
	found := false
	for _, step := range sol.Steps {
		if strings.Contains(step, "clamped") {
			found = true
		}
	}
	if !found {
		t.Errorf("virtual-resistance clamp not recorded in derivation steps")
	}
	if sol.Residual > 1e-6 {
		t.Errorf("residual = %g, expected ~0", sol.Residual)
	}
}

func TestSolveTReactivePortInfeasible(t *testing.T) {
	tests := []struct {
		name     string
		zInitial complex128
		zTarget  complex128
	}{
		{name: "Reactive source", zInitial: complex(0, 5), zTarget: complex(50, 0)},
		{name: "Reactive target", zInitial: complex(50, 0), zTarget: complex(0, -20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := SolveT(nil, Request{
				ZInitial: &tt.zInitial, ZTarget: &tt.zTarget, Z0: 50, Frequency: 1e9,
			})
			if err != nil {
				t.Fatalf("SolveT() error = %v", err)
			}
			if len(res.Solutions) != 1 || res.Solutions[0].Status != StatusInfeasible {
				t.Fatalf("expected a single infeasible solution")
			}
			if len(res.Solutions[0].Components) != 0 {
				t.Errorf("infeasible solution carries components")
			}
		})
	}
}
