// Package units provides parsing and formatting helpers for electrical
// quantities: SI-prefixed component values, frequencies, wavelengths, and
// complex impedances in the j-notation used by RF tooling.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
)

// FormatValue renders a value with an SI prefix and unit, e.g. 2.2e-12 with
// unit "F" becomes "2.200 pF".
func FormatValue(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1e9:
		return fmt.Sprintf("%.3f G%s", value/1e9, unit)
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	case absValue == 0:
		return fmt.Sprintf("0.000 %s", unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatFrequency renders a frequency in the largest natural unit.
func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e9:
		return fmt.Sprintf("%.3f GHz", freq/1e9)
	case freq >= 1e6:
		return fmt.Sprintf("%.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%.3f Hz", freq)
	}
}

// Wavelength returns the wavelength in meters for a frequency in Hz and a
// transmission-line velocity factor.
func Wavelength(freq, velocityFactor float64) (float64, error) {
	if freq <= 0 {
		return 0, fmt.Errorf("frequency must be positive, got %g", freq)
	}
	if velocityFactor <= 0 || velocityFactor > 1 {
		return 0, fmt.Errorf("velocity factor must be in (0, 1], got %g", velocityFactor)
	}
	return constants.SpeedOfLight * velocityFactor / freq, nil
}

// ParseComplex parses an impedance string such as "30+40j", "50", or "-25j".
// Both the electrical-engineering j suffix and Go's i suffix are accepted, and
// spaces are ignored.
func ParseComplex(s string) (complex128, error) {
	cleaned := strings.ReplaceAll(s, " ", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty complex value")
	}
	cleaned = strings.ReplaceAll(cleaned, "j", "i")
	cleaned = strings.ReplaceAll(cleaned, "J", "i")
	z, err := strconv.ParseComplex(cleaned, 128)
	if err != nil {
		return 0, fmt.Errorf("parse complex %q: %w", s, err)
	}
	return z, nil
}

// FormatComplex renders a complex impedance in j notation, e.g. "30+40j".
func FormatComplex(z complex128) string {
	s := strconv.FormatComplex(z, 'g', -1, 128)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.ReplaceAll(s, "i", "j")
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
