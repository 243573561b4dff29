// Package impedance provides conversions between impedance, admittance, and
// reflection coefficient against a real reference impedance, plus the
// tolerance helpers shared by the matching solvers.
package impedance

import (
	"math"
	"math/cmplx"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
)

// ZToGamma converts an impedance to the reflection coefficient referenced to
// z0. Non-finite or sentinel-magnitude impedances map to the open-circuit
// limit Γ = 1 instead of propagating NaN or Inf; an impedance of exactly -z0
// is likewise reported as a full reflection.
func ZToGamma(z complex128, z0 float64) complex128 {
	if !IsFinite(z) || cmplx.Abs(z) >= constants.SentinelImpedanceOhms {
		return complex(1, 0)
	}
	denom := z + complex(z0, 0)
	if cmplx.Abs(denom) < constants.RootEpsilon {
		return complex(1, 0)
	}
	return (z - complex(z0, 0)) / denom
}

// GammaToZ converts a reflection coefficient back to an impedance. A
// coefficient at or extremely near 1 corresponds to an open circuit and is
// reported as the sentinel impedance rather than an infinity.
func GammaToZ(gamma complex128, z0 float64) complex128 {
	denom := complex(1, 0) - gamma
	if cmplx.Abs(denom) < constants.RootEpsilon {
		return complex(constants.SentinelImpedanceOhms, 0)
	}
	return complex(z0, 0) * (complex(1, 0) + gamma) / denom
}

// ZToY inverts an impedance into an admittance. A short circuit maps to the
// sentinel conductance so callers never see an infinity.
func ZToY(z complex128) complex128 {
	if cmplx.Abs(z) < constants.RootEpsilon/constants.SentinelImpedanceOhms {
		return complex(constants.SentinelImpedanceOhms, 0)
	}
	return 1 / z
}

// YToZ inverts an admittance into an impedance with the same sentinel
// handling as ZToY.
func YToZ(y complex128) complex128 {
	if cmplx.Abs(y) < constants.RootEpsilon/constants.SentinelImpedanceOhms {
		return complex(constants.SentinelImpedanceOhms, 0)
	}
	return 1 / y
}

// Normalize scales an impedance by the reference impedance.
func Normalize(z complex128, z0 float64) complex128 {
	return z / complex(z0, 0)
}

// Denormalize undoes Normalize.
func Denormalize(z complex128, z0 float64) complex128 {
	return z * complex(z0, 0)
}

// VSWR returns the voltage standing wave ratio for a reflection coefficient.
// Magnitudes at or above 1 yield +Inf.
func VSWR(gamma complex128) float64 {
	mag := cmplx.Abs(gamma)
	if mag >= 1 {
		return math.Inf(1)
	}
	return (1 + mag) / (1 - mag)
}

// IsFinite reports whether both parts of z are finite numbers.
func IsFinite(z complex128) bool {
	return !cmplx.IsNaN(z) && !cmplx.IsInf(z)
}

// ApproxEqual reports whether two impedances are within tol of each other in
// the complex plane.
func ApproxEqual(a, b complex128, tol float64) bool {
	return cmplx.Abs(a-b) <= tol
}

// IsReactive reports whether an impedance has negligible resistance.
func IsReactive(z complex128) bool {
	return math.Abs(real(z)) < constants.ZeroResistanceEpsilon
}
