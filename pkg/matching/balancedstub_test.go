package matching

import (
	"math"
	"strings"
	"testing"
)

func TestSolveBalancedStubSplitsSusceptance(t *testing.T) {
	// Same geometry as the single-stub classic case, but each leg carries
	// half the susceptance, so the per-stub lengths move to the b/2 values.
	res, err := SolveBalancedStub(nil, Request{
		ZInitial: Cpx(30, 40), ZTarget: Cpx(50, 0), Z0: 50, Frequency: 1e9,
	})
	if err != nil {
		t.Fatalf("SolveBalancedStub() error = %v", err)
	}
	if len(res.Solutions) != 4 {
		t.Fatalf("solution count = %d, expected 4", len(res.Solutions))
	}

	tests := []struct {
		name         string
		susceptance  float64
		lengthLambda float64
	}{
		{"upper intersection, short-circuited stub", 0.57735027, 0.33333333},
		{"upper intersection, open-circuited stub", 0.57735027, 0.08333333},
		{"lower intersection, short-circuited stub", -0.57735027, 0.16666667},
		{"lower intersection, open-circuited stub", -0.57735027, 0.41666667},
	}
	for i, tt := range tests {
		sol := res.Solutions[i]
		t.Run(tt.name, func(t *testing.T) {
			if sol.Name != tt.name {
				t.Fatalf("name = %q, expected %q", sol.Name, tt.name)
			}
			if sol.Topology != TopologyBalancedStub {
				t.Errorf("topology = %v, expected balanced stub", sol.Topology)
			}
			if len(sol.Lines) != 2 {
				t.Fatalf("line count = %d, expected series line plus stub", len(sol.Lines))
			}
			line, stub := sol.Lines[0], sol.Lines[1]
			if line.Balanced {
				t.Errorf("series line marked balanced")
			}
			if !stub.Balanced {
				t.Errorf("stub not marked balanced")
			}
			if math.Abs(stub.Susceptance-tt.susceptance) > 1e-6 {
				t.Errorf("per-leg susceptance = %.8f, expected %.8f", stub.Susceptance, tt.susceptance)
			}
			if math.Abs(stub.LengthLambda-tt.lengthLambda) > 1e-6 {
				t.Errorf("per-leg stub length = %.8f lambda, expected %.8f", stub.LengthLambda, tt.lengthLambda)
			}
			if sol.Residual > 1e-6 {
				t.Errorf("residual = %g, expected ~0 (both legs together)", sol.Residual)
			}
			split := false
			for _, step := range sol.Steps {
				if strings.Contains(step, "one per leg") {
					split = true
				}
			}
			if !split {
				t.Errorf("derivation steps do not record the per-leg split")
			}
		})
	}
}

func TestSolveBalancedStubReactiveSourceInfeasible(t *testing.T) {
	res, err := SolveBalancedStub(nil, Request{
		ZInitial: Cpx(0, 5), ZTarget: Cpx(50, 0), Z0: 50, Frequency: 2.45e9,
	})
	if err != nil {
		t.Fatalf("SolveBalancedStub() error = %v", err)
	}
	if len(res.Solutions) != 1 || res.Solutions[0].Status != StatusInfeasible {
		t.Fatalf("expected a single infeasible solution for a purely reactive source")
	}
}
