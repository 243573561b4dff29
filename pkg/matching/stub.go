package matching

import (
	"math"
	"math/cmplx"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/impedance"
)

// gammaFromY maps a normalized admittance into the reflection-coefficient
// plane, reusing the sentinel guards of the impedance package.
func gammaFromY(y complex128) complex128 {
	return impedance.ZToGamma(impedance.YToZ(y), 1)
}

// yFromGamma is the inverse of gammaFromY.
func yFromGamma(gamma complex128) complex128 {
	return impedance.ZToY(impedance.GammaToZ(gamma, 1))
}

// lineRotate moves a reflection coefficient toward the generator through a
// lossless line of the given length in wavelengths: clockwise rotation with
// period lambda/2.
func lineRotate(gamma complex128, lengthLambda float64) complex128 {
	return gamma * cmplx.Exp(complex(0, -4*math.Pi*lengthLambda))
}

// rotationLength returns the line length in wavelengths that rotates the
// phase of from onto the phase of to, wrapped into [0, 0.5).
func rotationLength(from, to complex128) float64 {
	d := (cmplx.Phase(from) - cmplx.Phase(to)) / (4 * math.Pi)
	d = math.Mod(d, 0.5)
	if d < 0 {
		d += 0.5
	}
	// Phase noise on coincident points can wrap a zero rotation to just
	// under a full half-wave period; both are electrically the identity.
	if d >= 0.5-constants.RootEpsilon {
		d = 0
	}
	return d
}

// stubLength returns the length in wavelengths, in [0, 0.5), of a stub whose
// normalized input susceptance must equal b: tan(beta*l) = -1/b for a
// short-circuited stub, tan(beta*l) = b for an open-circuited one.
func stubLength(b float64, kind LineKind) float64 {
	var angle float64
	if kind == StubShort {
		angle = math.Atan(-1 / b)
	} else {
		angle = math.Atan(b)
	}
	if angle < 0 {
		angle += math.Pi
	}
	return angle / (2 * math.Pi)
}

// stubSusceptance returns the normalized input susceptance presented by a
// stub of the given length in wavelengths. It is the inverse of stubLength
// and is used to re-simulate solutions from their physical lengths.
func stubSusceptance(lengthLambda float64, kind LineKind) float64 {
	beta := 2 * math.Pi * lengthLambda
	if kind == StubShort {
		return -1 / math.Tan(beta)
	}
	return math.Tan(beta)
}

// newLine builds a transmission-line section at the system impedance,
// carrying both the electrical and the physical length.
func (s *state) newLine(kind LineKind, lengthLambda, susceptance float64, balanced bool) Line {
	return Line{
		Kind:         kind,
		LengthLambda: lengthLambda,
		LengthMM:     lengthLambda * s.lambda * 1000,
		Z0:           s.z0,
		Susceptance:  susceptance,
		Balanced:     balanced,
	}
}
