package matching

import (
	"math"
	"strings"
	"testing"
)

func TestSolveSingleStubClassic(t *testing.T) {
	// 30+40j to 50 ohm: |Gamma_1| = 0.5, the g = 1 circle is crossed at
	// -0.25 +/- 0.433j, and the residual susceptance is -/+ 2/sqrt(3).
	res, err := SolveSingleStub(nil, Request{
		ZInitial: Cpx(30, 40), ZTarget: Cpx(50, 0), Z0: 50, Frequency: 1e9,
	})
	if err != nil {
		t.Fatalf("SolveSingleStub() error = %v", err)
	}
	if len(res.Solutions) != 4 {
		t.Fatalf("solution count = %d, expected 4", len(res.Solutions))
	}

	tests := []struct {
		name         string
		lineLambda   float64
		susceptance  float64
		stubKind     LineKind
		lengthLambda float64
	}{
		{"upper intersection, short-circuited stub", 0.45833333, 1.15470054, StubShort, 0.38640734},
		{"upper intersection, open-circuited stub", 0.45833333, 1.15470054, StubOpen, 0.13640734},
		{"lower intersection, short-circuited stub", 0.29166667, -1.15470054, StubShort, 0.11359266},
		{"lower intersection, open-circuited stub", 0.29166667, -1.15470054, StubOpen, 0.36359266},
	}
	for i, tt := range tests {
		sol := res.Solutions[i]
		t.Run(tt.name, func(t *testing.T) {
			if sol.Name != tt.name {
				t.Fatalf("name = %q, expected %q", sol.Name, tt.name)
			}
			if sol.Status != StatusNormal {
				t.Fatalf("status = %v, expected normal", sol.Status)
			}
			if len(sol.Lines) != 2 {
				t.Fatalf("line count = %d, expected series line plus stub", len(sol.Lines))
			}
			line, stub := sol.Lines[0], sol.Lines[1]
			if line.Kind != LineSeries {
				t.Errorf("first line kind = %v, expected series line", line.Kind)
			}
			if math.Abs(line.LengthLambda-tt.lineLambda) > 1e-6 {
				t.Errorf("line length = %.8f lambda, expected %.8f", line.LengthLambda, tt.lineLambda)
			}
			if stub.Kind != tt.stubKind {
				t.Errorf("stub kind = %v, expected %v", stub.Kind, tt.stubKind)
			}
			if math.Abs(stub.Susceptance-tt.susceptance) > 1e-6 {
				t.Errorf("stub susceptance = %.8f, expected %.8f", stub.Susceptance, tt.susceptance)
			}
			if math.Abs(stub.LengthLambda-tt.lengthLambda) > 1e-6 {
				t.Errorf("stub length = %.8f lambda, expected %.8f", stub.LengthLambda, tt.lengthLambda)
			}
			if sol.Residual > 1e-6 {
				t.Errorf("residual = %g, expected ~0", sol.Residual)
			}
			if len(sol.Path) != 2 {
				t.Errorf("path has %d segments, expected line plus shunt", len(sol.Path))
			}
		})
	}
}

func TestSolveSingleStubConjugatePair(t *testing.T) {
	// 20-30j to 20+30j: the reflection magnitudes coincide, so a plain line
	// rotation works on its own, and the circle intersections degenerate to
	// the endpoints themselves. The target-side point needs no stub; the
	// source-side point needs no line and both stub terminations.
	res, err := SolveSingleStub(nil, Request{
		ZInitial: Cpx(20, -30), ZTarget: Cpx(20, 30), Z0: 50, Frequency: 2.45e9,
	})
	if err != nil {
		t.Fatalf("SolveSingleStub() error = %v", err)
	}
	if len(res.Solutions) != 4 {
		t.Fatalf("solution count = %d, expected 4", len(res.Solutions))
	}

	lineOnly := res.Solutions[0]
	if lineOnly.Name != "transmission line only" {
		t.Fatalf("first solution = %q, expected the line-only candidate", lineOnly.Name)
	}
	if len(lineOnly.Lines) != 1 || lineOnly.Lines[0].Kind != LineSeries {
		t.Fatalf("line-only solution should carry exactly one series line")
	}
	if math.Abs(lineOnly.Lines[0].LengthLambda-0.1894405) > 1e-6 {
		t.Errorf("line length = %.7f lambda, expected 0.1894405", lineOnly.Lines[0].LengthLambda)
	}

	omitted := res.Solutions[1]
	if omitted.Name != "upper intersection, stub omitted" {
		t.Fatalf("second solution = %q, expected the stub-omitted candidate", omitted.Name)
	}
	if len(omitted.Lines) != 1 || omitted.Lines[0].Kind != LineSeries {
		t.Fatalf("stub-omitted solution should carry exactly one series line")
	}

	short := res.Solutions[2]
	open := res.Solutions[3]
	if short.Name != "lower intersection, short-circuited stub" {
		t.Fatalf("third solution = %q, expected the short-stub candidate", short.Name)
	}
	if open.Name != "lower intersection, open-circuited stub" {
		t.Fatalf("fourth solution = %q, expected the open-stub candidate", open.Name)
	}
	// The source already sits on the conductance circle: stub only, no line.
	if len(short.Lines) != 1 || short.Lines[0].Kind != StubShort {
		t.Fatalf("short-stub solution should carry exactly one short-circuited stub")
	}
	if len(open.Lines) != 1 || open.Lines[0].Kind != StubOpen {
		t.Fatalf("open-stub solution should carry exactly one open-circuited stub")
	}
	if math.Abs(short.Lines[0].Susceptance-(-2.30769231)) > 1e-6 {
		t.Errorf("stub susceptance = %.8f, expected -30/13", short.Lines[0].Susceptance)
	}
	if math.Abs(short.Lines[0].LengthLambda-0.0650797) > 1e-5 {
		t.Errorf("short stub length = %.7f lambda, expected 0.0650797", short.Lines[0].LengthLambda)
	}
	if math.Abs(open.Lines[0].LengthLambda-0.3150797) > 1e-5 {
		t.Errorf("open stub length = %.7f lambda, expected 0.3150797", open.Lines[0].LengthLambda)
	}

	for i, sol := range res.Solutions {
		if sol.Status != StatusNormal {
			t.Errorf("solution %d status = %v, expected normal", i, sol.Status)
		}
		if sol.Residual > 1e-6 {
			t.Errorf("solution %d residual = %g, expected ~0", i, sol.Residual)
		}
	}
}

func TestSolveSingleStubReactiveSourceInfeasible(t *testing.T) {
	res, err := SolveSingleStub(nil, Request{
		ZInitial: Cpx(0, 5), ZTarget: Cpx(50, 0), Z0: 50, Frequency: 2.45e9,
	})
	if err != nil {
		t.Fatalf("SolveSingleStub() error = %v", err)
	}
	if len(res.Solutions) != 1 || res.Solutions[0].Status != StatusInfeasible {
		t.Fatalf("expected a single infeasible solution for a purely reactive source")
	}
	if res.Feasible() {
		t.Errorf("Feasible() = true on an infeasible-only result")
	}
}

func TestSolveSingleStubConductanceOutOfRange(t *testing.T) {
	// |Gamma| = 1/9 from 40 ohm reaches conductances in [0.8, 1.25]
	// normalized; a 10 ohm target needs g = 5.
	res, err := SolveSingleStub(nil, Request{
		ZInitial: Cpx(40, 0), ZTarget: Cpx(10, 0), Z0: 50, Frequency: 1e9,
	})
	if err != nil {
		t.Fatalf("SolveSingleStub() error = %v", err)
	}
	if len(res.Solutions) != 0 {
		t.Fatalf("solution count = %d, expected none", len(res.Solutions))
	}
	trail := strings.Join(res.Steps, "\n")
	if !strings.Contains(trail, "outside") {
		t.Errorf("derivation trail does not explain the unreachable conductance:\n%s", trail)
	}
}

func TestSolveSingleStubDirectConnect(t *testing.T) {
	res, err := SolveSingleStub(nil, Request{
		ZInitial: Cpx(30, 40), ZTarget: Cpx(30, 40), Z0: 50, Frequency: 1e9,
	})
	if err != nil {
		t.Fatalf("SolveSingleStub() error = %v", err)
	}
	if len(res.Solutions) != 1 {
		t.Fatalf("solution count = %d, expected 1", len(res.Solutions))
	}
	sol := res.Solutions[0]
	if sol.Status != StatusDirectConnect {
		t.Errorf("status = %v, expected direct connect", sol.Status)
	}
	if len(sol.Components) != 0 || len(sol.Lines) != 0 {
		t.Errorf("direct connect should need no hardware")
	}
}
